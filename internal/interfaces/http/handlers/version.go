package handlers

import (
	"runtime"

	"github.com/gofiber/fiber/v2"

	"looker-content-cleanup/pkg/constants"
)

type VersionHandler struct {
	info fiber.Map
}

func NewVersionHandler(version, buildTime string) *VersionHandler {
	return &VersionHandler{info: fiber.Map{
		"service":     constants.ServiceName,
		"version":     version,
		"buildTime":   buildTime,
		"api_version": constants.APIVersion,
		"go_version":  runtime.Version(),
	}}
}

func (h *VersionHandler) GetVersion(c *fiber.Ctx) error {
	return c.JSON(h.info)
}
