package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jogardn/partsdepot/pkg/models"
)

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (
			username, password, customer_name, credit_card_number,
			billing_address, shipping_address, preferred_branch, owned_car
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING customer_id
	`
	err := s.db.QueryRowContext(ctx, query,
		c.Username,
		c.PasswordHash,
		c.Name,
		c.CreditCardNumber,
		c.BillingAddress,
		c.ShippingAddress,
		c.PreferredBranch,
		nullString(c.OwnedCar),
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("create customer: %w", translate(err))
	}
	return nil
}

func (s *Store) CustomerByUsername(ctx context.Context, username string) (*models.Customer, error) {
	query := `
		SELECT customer_id, username, password, customer_name, credit_card_number,
			billing_address, shipping_address, preferred_branch, owned_car
		FROM customers WHERE username = $1
	`
	var c models.Customer
	var car sql.NullString
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&c.ID, &c.Username, &c.PasswordHash, &c.Name, &c.CreditCardNumber,
		&c.BillingAddress, &c.ShippingAddress, &c.PreferredBranch, &car,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	c.OwnedCar = stringPtr(car)
	return &c, nil
}

const employeeColumns = `employee_id, employee_name, employee_role, username, password`

func scanEmployee(row scanner) (*models.Employee, error) {
	var e models.Employee
	if err := row.Scan(&e.ID, &e.Name, &e.Role, &e.Username, &e.PasswordHash); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY employee_id`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	employees := []models.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	return s.findEmployee(ctx, `employee_id = $1`, id)
}

func (s *Store) EmployeeByUsername(ctx context.Context, username string) (*models.Employee, error) {
	return s.findEmployee(ctx, `username = $1`, username)
}

func (s *Store) findEmployee(ctx context.Context, where string, arg any) (*models.Employee, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE `+where, arg)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return e, nil
}

func (s *Store) CreateEmployee(ctx context.Context, e *models.Employee) error {
	query := `
		INSERT INTO employees (employee_name, employee_role, username, password)
		VALUES ($1, $2, $3, $4)
		RETURNING employee_id
	`
	err := s.db.QueryRowContext(ctx, query, e.Name, e.Role, e.Username, e.PasswordHash).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("create employee: %w", translate(err))
	}
	return nil
}

// UpdateEmployee keeps the stored password when e.PasswordHash is empty.
func (s *Store) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	query := `
		UPDATE employees
		SET employee_name = $1, employee_role = $2, username = $3,
			password = COALESCE($4, password)
		WHERE employee_id = $5
		RETURNING password
	`
	var hash sql.NullString
	if e.PasswordHash != "" {
		hash = sql.NullString{String: e.PasswordHash, Valid: true}
	}
	err := s.db.QueryRowContext(ctx, query, e.Name, e.Role, e.Username, hash, e.ID).Scan(&e.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update employee %d: %w", e.ID, translate(err))
	}
	return nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE employee_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee %d: %w", id, err)
	}
	return affectedOne(res)
}
