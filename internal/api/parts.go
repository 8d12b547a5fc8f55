package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jogardn/partsdepot/internal/store"
	"github.com/jogardn/partsdepot/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type partRequest struct {
	PartNumber *int64           `json:"part_number" validate:"required"`
	Name       string           `json:"part_name" validate:"required"`
	Price      *decimal.Decimal `json:"price" validate:"required"`
	ImgURL     *string          `json:"img_url"`
}

func (s *Server) ListParts(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	var (
		parts []models.Part
		err   error
	)
	if search == "" {
		parts, err = s.deps.Parts.ListParts(r.Context())
	} else {
		parts, err = s.deps.Parts.SearchParts(r.Context(), search)
	}
	if err != nil {
		s.logger.WithError(err).WithField("search", search).Error("Failed to fetch parts")
		s.respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}

	s.respondWithJSON(w, http.StatusOK, parts)
}

func (s *Server) ManageListParts(w http.ResponseWriter, r *http.Request) {
	parts, err := s.deps.Parts.ListParts(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list parts")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to load parts")
		return
	}
	s.respondWithJSON(w, http.StatusOK, parts)
}

func (s *Server) CreatePart(w http.ResponseWriter, r *http.Request) {
	part, ok := s.readPart(w, r)
	if !ok {
		return
	}

	if err := s.deps.Parts.CreatePart(r.Context(), part); err != nil {
		s.partWriteError(w, err, "Failed to create part")
		return
	}

	s.auditLog(r).WithFields(logrus.Fields{
		"part_id":     part.ID,
		"part_number": part.PartNumber,
	}).Info("Part created")
	s.respondWithJSON(w, http.StatusCreated, part)
}

func (s *Server) UpdatePart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid part id")
		return
	}

	part, ok := s.readPart(w, r)
	if !ok {
		return
	}
	part.ID = id

	if err := s.deps.Parts.UpdatePart(r.Context(), part); err != nil {
		s.partWriteError(w, err, "Failed to update part")
		return
	}

	s.auditLog(r).WithField("part_id", id).Info("Part updated")
	s.respondWithJSON(w, http.StatusOK, part)
}

func (s *Server) DeletePart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid part id")
		return
	}

	if err := s.deps.Parts.DeletePart(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.respondWithError(w, http.StatusNotFound, "Part not found")
		case errors.Is(err, store.ErrReferenced):
			s.respondWithError(w, http.StatusConflict, "Part is referenced by existing orders")
		default:
			s.logger.WithError(err).WithField("part_id", id).Error("Failed to delete part")
			s.respondWithError(w, http.StatusInternalServerError, "Failed to delete part")
		}
		return
	}

	s.auditLog(r).WithField("part_id", id).Info("Part deleted")
	s.respondWithMessage(w, http.StatusOK, "Part deleted")
}

func (s *Server) readPart(w http.ResponseWriter, r *http.Request) (*models.Part, bool) {
	var req partRequest
	if !s.decodeJSON(w, r, &req) {
		return nil, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if !s.check(w, req) {
		return nil, false
	}
	price := req.Price.Round(2)
	if !s.checkMoney(w, "price", price) {
		return nil, false
	}

	return &models.Part{
		PartNumber: *req.PartNumber,
		Name:       req.Name,
		Price:      price,
		ImgURL:     req.ImgURL,
	}, true
}

func (s *Server) partWriteError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.respondWithError(w, http.StatusNotFound, "Part not found")
	case errors.Is(err, store.ErrDuplicate):
		s.respondWithError(w, http.StatusConflict, "A part with this part number already exists")
	case errors.Is(err, store.ErrInvalidInput):
		s.respondWithError(w, http.StatusBadRequest, "Part values are out of range")
	default:
		s.logger.WithError(err).Error(message)
		s.respondWithError(w, http.StatusInternalServerError, message)
	}
}
