package handlers

import (
	"platos/internal/catalog"
	"platos/internal/dishes"
)

var (
	dishService    *dishes.Service
	catalogService *catalog.Service
)

// Configure installs the services used by the HTTP handlers.
func Configure(dishSvc *dishes.Service, catalogSvc *catalog.Service) {
	dishService = dishSvc
	catalogService = catalogSvc
}
