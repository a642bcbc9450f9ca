package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"

	"github.com/example/maskpaint/internal/mask"
	"github.com/example/maskpaint/internal/session"
)

const maxUploadSize = 10 << 20

// EncodeResponse is the result of encoding an uploaded image.
type EncodeResponse struct {
	Points []int      `json:"points"`
	Runs   []int      `json:"runs"`
	Box    BoxPayload `json:"box"`
	Set    int        `json:"set"`
}

// DecodeRequest asks for a mask raster. With Width and Height set, the mask
// is placed on a transparent canvas of that size.
type DecodeRequest struct {
	Points []int  `json:"points"`
	Color  string `json:"color,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// handleEncode reads a PNG or JPEG body and encodes every pixel with
// non-zero alpha. The box defaults to the tight bounds of those pixels.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid image: %v", err))
		return
	}
	if !fits(cfg.Width, cfg.Height, s.cfg.MaxPixels) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, s.cfg.MaxPixels))
		return
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid image: %v", err))
		return
	}

	var box mask.Box
	if v := r.URL.Query().Get("box"); v != "" {
		box, err = mask.ParseBox(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var ok bool
		box, ok = mask.TightBox(img)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "image has no set pixels")
			return
		}
	}

	if box.Area() > s.cfg.MaxPixels {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("box %v exceeds %d pixels", box, s.cfg.MaxPixels))
		return
	}

	enc, err := mask.EncodeImage(img, box)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, EncodeResponse{
		Points: enc.Points(),
		Runs:   enc.Runs,
		Box:    BoxPayload{Left: box.Left, Top: box.Top, Right: box.Right, Bottom: box.Bottom},
		Set:    enc.Set(),
	})
}

// handleDecode renders points as a PNG.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Width < 0 || req.Height < 0 {
		writeError(w, http.StatusBadRequest, "width and height must not be negative")
		return
	}
	if !fits(req.Width, req.Height, s.cfg.MaxPixels) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("canvas %dx%d exceeds %d pixels", req.Width, req.Height, s.cfg.MaxPixels))
		return
	}
	colName := req.Color
	if colName == "" {
		colName = "white"
	}
	col, err := session.ParseColor(colName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	enc, err := mask.Parse(req.Points)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if area := enc.Box.Area(); area > s.cfg.MaxPixels {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("box %v holds %d pixels, limit is %d", enc.Box, area, s.cfg.MaxPixels))
		return
	}
	layer, err := mask.Decode(enc, col)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var out image.Image = layer
	if req.Width > 0 && req.Height > 0 {
		canvas := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
		draw.Draw(canvas, layer.Bounds(), layer, layer.Bounds().Min, draw.Src)
		out = canvas
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		writeError(w, http.StatusInternalServerError, "encode png")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Mask-Box", enc.Box.String())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
