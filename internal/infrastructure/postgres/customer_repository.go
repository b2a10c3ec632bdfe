package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo CustomerRepository implementation (usable with pool or tx).
// Rate versions, surcharge plans and funding versions live as jsonb on their
// parent rows; the aggregator consumes them as loaded, no lazy fetching.
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository builds the adapter. Pass a pool or a tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// GetByID loads one customer with subscriptions and fundings.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	query := `
		SELECT id, company_id, COALESCE(title, ''), COALESCE(firstname, ''), lastname, created_at, updated_at
		FROM customers
		WHERE id = $1`
	var c entity.Customer
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.CompanyID, &c.Identity.Title, &c.Identity.Firstname, &c.Identity.Lastname,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if err := r.attach(ctx, []*entity.Customer{&c}); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListForBilling returns the company's customers, with subscriptions and
// fundings loaded, ordered by id. An empty ids slice means all customers.
func (r *CustomerRepo) ListForBilling(ctx context.Context, companyID string, ids []string) ([]entity.Customer, error) {
	query := `
		SELECT id, company_id, COALESCE(title, ''), COALESCE(firstname, ''), lastname, created_at, updated_at
		FROM customers
		WHERE company_id = $1`
	args := []any{companyID}
	if len(ids) > 0 {
		query += ` AND id = ANY($2)`
		args = append(args, ids)
	}
	query += ` ORDER BY id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []entity.Customer
	for rows.Next() {
		var c entity.Customer
		if err := rows.Scan(
			&c.ID, &c.CompanyID, &c.Identity.Title, &c.Identity.Firstname, &c.Identity.Lastname,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	if len(customers) == 0 {
		return nil, nil
	}

	refs := make([]*entity.Customer, len(customers))
	for i := range customers {
		refs[i] = &customers[i]
	}
	if err := r.attach(ctx, refs); err != nil {
		return nil, err
	}
	return customers, nil
}

// attach loads subscriptions (with their service) and fundings for the given
// customers in two queries.
func (r *CustomerRepo) attach(ctx context.Context, customers []*entity.Customer) error {
	byID := make(map[string]*entity.Customer, len(customers))
	ids := make([]string, 0, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	subQuery := `
		SELECT s.id, s.customer_id, s.created_at,
		       sv.id, sv.company_id, sv.name, sv.nature, sv.versions
		FROM subscriptions s
		JOIN services sv ON sv.id = s.service_id
		WHERE s.customer_id = ANY($1)
		ORDER BY s.id`
	rows, err := r.q.Query(ctx, subQuery, ids)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sub entity.Subscription
		if err := rows.Scan(
			&sub.ID, &sub.CustomerID, &sub.CreatedAt,
			&sub.Service.ID, &sub.Service.CompanyID, &sub.Service.Name, &sub.Service.Nature, &sub.Service.Versions,
		); err != nil {
			return fmt.Errorf("scan subscription: %w", err)
		}
		if c, ok := byID[sub.CustomerID]; ok {
			c.Subscriptions = append(c.Subscriptions, sub)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate subscriptions: %w", err)
	}
	rows.Close()

	fundingQuery := `
		SELECT id, customer_id, third_party_payer_id, COALESCE(subscription_id, ''), nature, frequency, care_days, versions
		FROM fundings
		WHERE customer_id = ANY($1)
		ORDER BY id`
	rows, err = r.q.Query(ctx, fundingQuery, ids)
	if err != nil {
		return fmt.Errorf("list fundings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f entity.Funding
		if err := rows.Scan(
			&f.ID, &f.CustomerID, &f.ThirdPartyPayerID, &f.SubscriptionID,
			&f.Nature, &f.Frequency, &f.CareDays, &f.Versions,
		); err != nil {
			return fmt.Errorf("scan funding: %w", err)
		}
		if c, ok := byID[f.CustomerID]; ok {
			c.Fundings = append(c.Fundings, f)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate fundings: %w", err)
	}
	return nil
}
