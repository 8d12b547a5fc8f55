package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var (
	errBadID = errors.New("invalid id")
	maxMoney = decimal.RequireFromString("99999999.99")
)

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Warn("Failed to write response")
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func (s *Server) respondWithMessage(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]interface{}{
		"success": true,
		"message": message,
	})
}

// decodeJSON reads a single JSON object from the body. Unknown fields are
// accepted since the admin console sends whole rows back.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		s.logger.WithError(err).WithField("path", r.URL.Path).Info("Rejected request body")
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// check runs struct validation and answers 400 with the first failing field.
func (s *Server) check(w http.ResponseWriter, v interface{}) bool {
	err := s.validate.Struct(v)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		s.respondWithError(w, http.StatusBadRequest, validationMessage(verrs[0]))
		return false
	}
	s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "gt", "gte", "min":
		return fmt.Sprintf("%s must be at least %s.", fe.Field(), minimum(fe))
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}

func minimum(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		if n, err := strconv.Atoi(fe.Param()); err == nil {
			return strconv.Itoa(n + 1)
		}
	}
	return fe.Param()
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkMoney rejects amounts a NUMERIC(10,2) column cannot hold. d must
// already be rounded to cents.
func (s *Server) checkMoney(w http.ResponseWriter, field string, d decimal.Decimal) bool {
	switch {
	case d.IsNegative():
		s.respondWithError(w, http.StatusBadRequest, field+" must not be negative.")
		return false
	case d.GreaterThan(maxMoney):
		s.respondWithError(w, http.StatusBadRequest, field+" must be at most "+maxMoney.StringFixed(2)+".")
		return false
	}
	return true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}
