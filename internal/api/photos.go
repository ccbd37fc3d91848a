package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListPhotos(c *gin.Context) {
	propertyID, ok := pathID(c)
	if !ok {
		return
	}
	ownerID := currentUser(c)
	if _, err := h.db.GetProperty(ownerID, propertyID); err != nil {
		h.respondError(c, err, "Failed to get photos")
		return
	}
	photos, err := h.db.ListPhotos(ownerID, propertyID)
	if err != nil {
		h.respondError(c, err, "Failed to get photos")
		return
	}
	c.JSON(http.StatusOK, photos)
}

// UploadPhoto accepts a multipart "photo" file with an optional "caption"
func (h *Handler) UploadPhoto(c *gin.Context) {
	propertyID, ok := pathID(c)
	if !ok {
		return
	}
	property, err := h.db.GetProperty(currentUser(c), propertyID)
	if err != nil {
		h.respondError(c, err, "Failed to upload photo")
		return
	}

	header, err := c.FormFile("photo")
	if err != nil {
		badRequest(c, "Missing photo file")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.respondError(c, err, "Failed to upload photo")
		return
	}
	defer file.Close()

	photo, err := h.photos.Save(property.ID, header.Filename, file)
	if err != nil {
		h.respondError(c, err, "Failed to upload photo")
		return
	}
	photo.Caption = c.PostForm("caption")

	if err := h.db.CreatePhoto(photo); err != nil {
		if removeErr := h.photos.Remove(photo.ObjectKey); removeErr != nil {
			h.logger.WithError(removeErr).WithField("object_key", photo.ObjectKey).Warn("Failed to remove orphaned photo")
		}
		h.respondError(c, err, "Failed to upload photo")
		return
	}
	c.JSON(http.StatusCreated, photo)
}

// GetPhotoFile streams the stored image
func (h *Handler) GetPhotoFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	photo, err := h.db.GetPhoto(currentUser(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to get photo")
		return
	}
	file, err := h.photos.Open(photo.ObjectKey)
	if err != nil {
		h.respondError(c, err, "Failed to get photo")
		return
	}
	defer file.Close()

	c.Header("Content-Type", photo.ContentType)
	http.ServeContent(c.Writer, c.Request, photo.FileName, photo.CreatedAt, file)
}

func (h *Handler) DeletePhoto(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	photo, err := h.db.DeletePhoto(currentUser(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to delete photo")
		return
	}
	if err := h.photos.Remove(photo.ObjectKey); err != nil {
		h.logger.WithError(err).WithField("object_key", photo.ObjectKey).Warn("Failed to remove photo file")
	}
	c.Status(http.StatusNoContent)
}
