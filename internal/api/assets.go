package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/asset-registry/internal/asset"
)

// Messages returned to clients. They never carry internal error detail.
const (
	msgAssetCreated  = "Asset created successfully"
	msgAssetUpdated  = "Asset updated successfully"
	msgAssetDeleted  = "Asset deleted successfully"
	msgAssetNotFound = "Asset not found with provided identifier"
	msgSerialExists  = "Serial number already exists in the system"
	msgInvalidBody   = "Invalid request body"
	msgBodyTooLarge  = "Request body too large"

	msgListFailed   = "Internal server error while retrieving assets"
	msgGetFailed    = "Internal server error while retrieving asset"
	msgCreateFailed = "Internal server error while creating asset"
	msgUpdateFailed = "Internal server error while updating asset"
	msgDeleteFailed = "Internal server error while deleting asset"
)

var errTrailingData = errors.New("api: data after JSON body")

// handleListAssets returns every asset, newest first, with the total count.
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.assets.List(r.Context())
	if err != nil {
		s.internalError(w, r, msgListFailed, err)
		return
	}
	if assets == nil {
		assets = []asset.Asset{}
	}
	writeList(w, assets, len(assets))
}

// handleGetAsset returns a single asset by ID.
func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.assets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAssetError(w, r, msgGetFailed, err)
		return
	}
	writeData(w, http.StatusOK, "", a)
}

// handleCreateAsset validates and stores a new asset.
func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePayload(w, r)
	if !ok {
		return
	}

	a, err := s.assets.Create(r.Context(), p)
	if err != nil {
		s.writeAssetError(w, r, msgCreateFailed, err)
		return
	}
	writeData(w, http.StatusCreated, msgAssetCreated, a)
}

// handleUpdateAsset replaces all writable fields of an existing asset.
func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePayload(w, r)
	if !ok {
		return
	}

	a, err := s.assets.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.writeAssetError(w, r, msgUpdateFailed, err)
		return
	}
	writeData(w, http.StatusOK, msgAssetUpdated, a)
}

// handleDeleteAsset removes an asset permanently.
func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.assets.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeAssetError(w, r, msgDeleteFailed, err)
		return
	}
	writeData(w, http.StatusOK, msgAssetDeleted, nil)
}

// decodePayload reads the request body into an asset.Payload. An empty
// body decodes to the zero payload so the validator names the first
// missing field. A body must hold exactly one JSON value. On failure the
// response has already been written.
func decodePayload(w http.ResponseWriter, r *http.Request) (asset.Payload, bool) {
	var p asset.Payload
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&p)
	if errors.Is(err, io.EOF) {
		return p, true
	}
	if err == nil {
		var extra json.RawMessage
		if err = dec.Decode(&extra); errors.Is(err, io.EOF) {
			return p, true
		}
		if err == nil {
			err = errTrailingData
		}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return asset.Payload{}, false
	}
	writeError(w, http.StatusBadRequest, msgInvalidBody)
	return asset.Payload{}, false
}

// writeAssetError maps service errors onto status codes. Anything not
// recognised is logged and reported with the operation's generic message.
func (s *Server) writeAssetError(w http.ResponseWriter, r *http.Request, internalMsg string, err error) {
	var verr *asset.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, asset.ErrSerialNumberExists):
		writeError(w, http.StatusConflict, msgSerialExists)
	case errors.Is(err, asset.ErrAssetNotFound):
		writeError(w, http.StatusNotFound, msgAssetNotFound)
	default:
		s.internalError(w, r, internalMsg, err)
	}
}

// internalError logs err for operators and writes a 500 with msg.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestID(r),
	)
	writeError(w, http.StatusInternalServerError, msg)
}
