package server

import (
	"context"
	"net/http"

	"platos/internal/handlers"
	applog "platos/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.HandleFunc("/api/ingredients", handlers.IngredientResource)
	mux.HandleFunc("/api/ingredients/", handlers.IngredientResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/ingredients")
	mux.HandleFunc("/api/dishes", handlers.DishResource)
	mux.HandleFunc("/api/dishes/", handlers.DishResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/dishes")
	return mux
}
