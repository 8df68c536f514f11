//go:build !tinygo

package main

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	log "github.com/sirupsen/logrus"

	"sparkgfx/gfx/imagesurface"
	"sparkgfx/gfx/virtual"
)

type statsResponse struct {
	Width    int                   `json:"width"`
	Height   int                   `json:"height"`
	Lists    uint64                `json:"lists"`
	Sessions []virtual.SessionInfo `json:"sessions"`
}

type touchRequest struct {
	X       int16 `json:"x"`
	Y       int16 `json:"y"`
	Pressed bool  `json:"pressed"`
}

type errorResponse struct {
	ErrorMessage string `json:"errorMessage"`
}

func newRouter(srv *virtual.Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(accessLogDecorator)

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) { statsHandler(w, r, srv) })
	r.Get("/snapshot.bmp", func(w http.ResponseWriter, r *http.Request) { snapshotHandler(w, r, srv) })
	r.Post("/touch", func(w http.ResponseWriter, r *http.Request) { touchHandler(w, r, srv) })
	return r
}

func accessLogDecorator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry := log.WithFields(log.Fields{"method": r.Method, "url": r.URL.String(), "status": status})
		if status/100 != 2 {
			entry.Warn("vscreen: request failed")
		} else {
			entry.Debug("vscreen: request")
		}
	})
}

func statsHandler(w http.ResponseWriter, r *http.Request, srv *virtual.Server) {
	scr := srv.Screen()
	size := scr.Size()
	render.JSON(w, r, statsResponse{
		Width:    int(size.W),
		Height:   int(size.H),
		Lists:    scr.Lists(),
		Sessions: srv.Sessions(),
	})
}

func snapshotHandler(w http.ResponseWriter, r *http.Request, srv *virtual.Server) {
	w.Header().Set("Content-Type", "image/bmp")
	if err := imagesurface.EncodeBMP(w, srv.Screen().Image()); err != nil {
		log.WithError(err).Warn("vscreen: snapshot not sent")
	}
}

func touchHandler(w http.ResponseWriter, r *http.Request, srv *virtual.Server) {
	var req touchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{ErrorMessage: err.Error()})
		return
	}
	srv.SendTouch(virtual.Touch{X: req.X, Y: req.Y, Pressed: req.Pressed})
	w.WriteHeader(http.StatusAccepted)
}
