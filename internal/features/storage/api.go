package storage

import (
	"litterbugs/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type StorageApi struct {
	controller *StorageController
}

func NewStorageApi(controller *StorageController) *StorageApi {
	return &StorageApi{controller: controller}
}

func (h *StorageApi) Setup(app *fiber.App) {
	objects := app.Group("/storage/v1/object")

	objects.Get("/signed/:bucket/*", h.controller.Download)
	objects.Post("/sign/:bucket/*", middleware.IdentityMiddleware(), h.controller.Sign)
	objects.Put("/:bucket/*", middleware.IdentityMiddleware(), h.controller.Upload)
}
