package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jogardn/partsdepot/internal/auth"
	"github.com/jogardn/partsdepot/internal/store"
	"github.com/jogardn/partsdepot/pkg/models"
	"github.com/sirupsen/logrus"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Mode     string `json:"mode"`
}

type customerRequest struct {
	Username         string  `json:"username" validate:"required"`
	Password         string  `json:"password" validate:"required"`
	Name             string  `json:"customer_name" validate:"required"`
	CreditCardNumber string  `json:"credit_card_number"`
	BillingAddress   string  `json:"billing_address"`
	ShippingAddress  string  `json:"shipping_address"`
	PreferredBranch  string  `json:"preferred_branch"`
	OwnedCar         *string `json:"owned_car"`
}

// employeeRequest also accepts the admin console's full_name and department
// field names.
type employeeRequest struct {
	Name       string `json:"employee_name" validate:"required"`
	FullName   string `json:"full_name"`
	Role       string `json:"employee_role" validate:"required"`
	Department string `json:"department"`
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password"`
}

func (req *employeeRequest) normalize() {
	if req.Name == "" {
		req.Name = req.FullName
	}
	if req.Role == "" {
		req.Role = req.Department
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.TrimSpace(req.Role)
	req.Username = strings.TrimSpace(req.Username)
}

// Login checks credentials against the employees table in employee mode and
// against customers otherwise.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		s.respondWithError(w, http.StatusBadRequest, "Username and password are required.")
		return
	}

	var (
		resp *models.LoginResponse
		err  error
	)
	if req.Mode == models.RoleEmployee {
		resp, err = s.loginEmployee(r, req)
	} else {
		resp, err = s.loginCustomer(r, req)
	}

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, auth.ErrMismatch):
		s.logger.WithField("username", req.Username).Info("Login rejected")
		s.respondWithError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	case err != nil:
		s.logger.WithError(err).Error("Login error")
		s.respondWithError(w, http.StatusInternalServerError, "Server error.")
		return
	}

	token, err := s.deps.Tokens.Issue(resp.Username, resp.Role, derefString(resp.EmployeeRole))
	if err != nil {
		s.logger.WithError(err).Error("Failed to issue token")
		s.respondWithError(w, http.StatusInternalServerError, "Server error.")
		return
	}
	resp.Token = token

	s.respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) loginEmployee(r *http.Request, req loginRequest) (*models.LoginResponse, error) {
	e, err := s.deps.Accounts.EmployeeByUsername(r.Context(), req.Username)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(e.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	role := e.Role
	return &models.LoginResponse{
		Username:     e.Username,
		DisplayName:  e.Name,
		Role:         models.RoleEmployee,
		EmployeeRole: &role,
	}, nil
}

func (s *Server) loginCustomer(r *http.Request, req loginRequest) (*models.LoginResponse, error) {
	c, err := s.deps.Accounts.CustomerByUsername(r.Context(), req.Username)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(c.PasswordHash, req.Password); err != nil {
		return nil, err
	}
	return &models.LoginResponse{
		Username:    c.Username,
		DisplayName: c.Name,
		Role:        models.RoleCustomer,
	}, nil
}

func (s *Server) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if !s.check(w, req) {
		return
	}

	hash, ok := s.hashPassword(w, req.Password)
	if !ok {
		return
	}

	customer := &models.Customer{
		Username:         req.Username,
		PasswordHash:     hash,
		Name:             req.Name,
		CreditCardNumber: models.MaskCard(req.CreditCardNumber),
		BillingAddress:   req.BillingAddress,
		ShippingAddress:  req.ShippingAddress,
		PreferredBranch:  req.PreferredBranch,
		OwnedCar:         req.OwnedCar,
	}
	if err := s.deps.Accounts.CreateCustomer(r.Context(), customer); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.respondWithError(w, http.StatusConflict, "Username is already taken.")
			return
		}
		s.logger.WithError(err).Error("Failed to register customer")
		s.respondWithError(w, http.StatusInternalServerError, "Server error.")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"customer_id": customer.ID,
		"username":    customer.Username,
	}).Info("Customer registered")
	s.respondWithJSON(w, http.StatusCreated, customer)
}

func (s *Server) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.deps.Accounts.ListEmployees(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list employees")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to load employees")
		return
	}
	s.respondWithJSON(w, http.StatusOK, employees)
}

func (s *Server) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid employee id")
		return
	}

	employee, err := s.deps.Accounts.GetEmployee(r.Context(), id)
	if err != nil {
		s.employeeError(w, err, "Failed to load employee")
		return
	}
	s.respondWithJSON(w, http.StatusOK, employee)
}

func (s *Server) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.normalize()
	if !s.check(w, req) {
		return
	}
	if req.Password == "" {
		s.respondWithError(w, http.StatusBadRequest, "password is required.")
		return
	}

	employee := &models.Employee{Name: req.Name, Role: req.Role, Username: req.Username}
	if !s.hashInto(w, employee, req.Password) {
		return
	}

	if err := s.deps.Accounts.CreateEmployee(r.Context(), employee); err != nil {
		s.employeeError(w, err, "Failed to create employee")
		return
	}

	s.auditLog(r).WithField("employee_id", employee.ID).Info("Employee created")
	s.respondWithJSON(w, http.StatusCreated, employee)
}

// UpdateEmployee keeps the current password when none is sent.
func (s *Server) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid employee id")
		return
	}

	var req employeeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.normalize()
	if !s.check(w, req) {
		return
	}

	employee := &models.Employee{ID: id, Name: req.Name, Role: req.Role, Username: req.Username}
	if req.Password != "" && !s.hashInto(w, employee, req.Password) {
		return
	}

	if err := s.deps.Accounts.UpdateEmployee(r.Context(), employee); err != nil {
		s.employeeError(w, err, "Failed to update employee")
		return
	}

	s.auditLog(r).WithField("employee_id", id).Info("Employee updated")
	s.respondWithJSON(w, http.StatusOK, employee)
}

func (s *Server) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid employee id")
		return
	}

	if err := s.deps.Accounts.DeleteEmployee(r.Context(), id); err != nil {
		s.employeeError(w, err, "Failed to delete employee")
		return
	}

	s.auditLog(r).WithField("employee_id", id).Info("Employee deleted")
	s.respondWithMessage(w, http.StatusOK, "Employee deleted")
}

func (s *Server) hashInto(w http.ResponseWriter, e *models.Employee, password string) bool {
	hash, ok := s.hashPassword(w, password)
	if ok {
		e.PasswordHash = hash
	}
	return ok
}

func (s *Server) hashPassword(w http.ResponseWriter, password string) (string, bool) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			s.respondWithError(w, http.StatusBadRequest, "password must be at most 72 bytes.")
			return "", false
		}
		s.logger.WithError(err).Error("Failed to hash password")
		s.respondWithError(w, http.StatusInternalServerError, "Server error.")
		return "", false
	}
	return hash, true
}

func (s *Server) employeeError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.respondWithError(w, http.StatusNotFound, "Employee not found")
	case errors.Is(err, store.ErrDuplicate):
		s.respondWithError(w, http.StatusConflict, "Username is already taken.")
	default:
		s.logger.WithError(err).Error(message)
		s.respondWithError(w, http.StatusInternalServerError, message)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
