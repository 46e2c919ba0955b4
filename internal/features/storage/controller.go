package storage

import (
	"time"

	"litterbugs/internal/common/api"
	"litterbugs/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type StorageController struct {
	StorageService StorageService
}

func NewStorageController(storageService StorageService) *StorageController {
	return &StorageController{StorageService: storageService}
}

// Upload godoc
// @Summary Upload an object
// @Description Stores the raw request body at the given path. Existing objects are not replaced.
// @Tags storage
// @Accept image/jpeg
// @Produce json
// @Param bucket path string true "Bucket"
// @Param path path string true "Object path"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /storage/v1/object/{bucket}/{path} [put]
func (ctrl *StorageController) Upload(c *fiber.Ctx) error {
	// Fiber reuses request buffers; the strings end up in stored metadata.
	bucket := utils.CopyString(c.Params("bucket"))
	path := utils.CopyString(c.Params("*"))
	contentType := utils.CopyString(c.Get(fiber.HeaderContentType, "application/octet-stream"))

	object, err := ctrl.StorageService.Upload(c.UserContext(), middleware.CallerID(c), bucket, path, contentType, c.Body())
	if err != nil {
		return api.Error(c, err)
	}

	return c.JSON(fiber.Map{"Key": object.Key})
}

// Sign godoc
// @Summary Create a signed read URL
// @Tags storage
// @Accept json
// @Produce json
// @Param bucket path string true "Bucket"
// @Param path path string true "Object path"
// @Param request body SignRequest true "Expiry in seconds"
// @Success 200 {object} SignResponse
// @Failure 404 {object} map[string]interface{}
// @Router /storage/v1/object/sign/{bucket}/{path} [post]
func (ctrl *StorageController) Sign(c *fiber.Ctx) error {
	var req SignRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	signed, err := ctrl.StorageService.Sign(c.UserContext(), utils.CopyString(c.Params("bucket")), utils.CopyString(c.Params("*")), time.Duration(req.ExpiresIn)*time.Second)
	if err != nil {
		return api.Error(c, err)
	}
	return c.JSON(SignResponse{SignedURL: signed})
}

// Download godoc
// @Summary Read an object through a signed URL
// @Tags storage
// @Param bucket path string true "Bucket"
// @Param path path string true "Object path"
// @Param token query string true "Signature"
// @Success 200 {file} file "Object content"
// @Failure 403 {object} map[string]interface{}
// @Router /storage/v1/object/signed/{bucket}/{path} [get]
func (ctrl *StorageController) Download(c *fiber.Ctx) error {
	data, object, err := ctrl.StorageService.Read(c.UserContext(), c.Query("token"), c.Params("bucket"), c.Params("*"))
	if err != nil {
		return api.Error(c, err)
	}

	c.Set(fiber.HeaderContentType, object.MimeType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Send(data)
}
