package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jogardn/partsdepot/pkg/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCustomerDuplicateUsername(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(q("INSERT INTO customers")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "customers_username_key"})

	err := s.CreateCustomer(context.Background(), &models.Customer{Username: "ann", PasswordHash: "h", Name: "Ann"})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerByUsername(t *testing.T) {
	s, mock := newMockStore(t)

	cols := []string{"customer_id", "username", "password", "customer_name", "credit_card_number",
		"billing_address", "shipping_address", "preferred_branch", "owned_car"}
	mock.ExpectQuery(q("FROM customers WHERE username = $1")).
		WithArgs("ann").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "ann", "hash", "Ann", "4111", "1 Main", "1 Main", "North", "Civic"))
	mock.ExpectQuery(q("FROM customers WHERE username = $1")).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(cols))

	c, err := s.CustomerByUsername(context.Background(), "ann")
	require.NoError(t, err)
	assert.Equal(t, "Ann", c.Name)
	require.NotNil(t, c.OwnedCar)
	assert.Equal(t, "Civic", *c.OwnedCar)

	_, err = s.CustomerByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmployeeKeepsPasswordWhenOmitted(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(q("password = COALESCE($4, password)")).
		WithArgs("Bob", "Manager", "bob", nil, int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow("stored-hash"))

	e := &models.Employee{ID: 4, Name: "Bob", Role: "Manager", Username: "bob"}
	require.NoError(t, s.UpdateEmployee(context.Background(), e))
	assert.Equal(t, "stored-hash", e.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmployeeMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(q("UPDATE employees")).
		WillReturnRows(sqlmock.NewRows([]string{"password"}))

	err := s.UpdateEmployee(context.Background(), &models.Employee{ID: 77, Name: "x", Role: "y", Username: "z", PasswordHash: "new"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEmployee(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(q("DELETE FROM employees WHERE employee_id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM employees WHERE employee_id = $1")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.DeleteEmployee(context.Background(), 1))
	assert.ErrorIs(t, s.DeleteEmployee(context.Background(), 2), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEmployees(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(q("FROM employees ORDER BY employee_id")).
		WillReturnRows(sqlmock.NewRows([]string{"employee_id", "employee_name", "employee_role", "username", "password"}).
			AddRow(1, "Bob", "Manager", "bob", "h1").
			AddRow(2, "Cy", "Clerk", "cy", "h2"))

	employees, err := s.ListEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "Clerk", employees[1].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}
