package postgres

import (
	"context"
	"fmt"

	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/repository"
)

var _ repository.ThirdPartyPayerRepository = (*ThirdPartyPayerRepo)(nil)

// ThirdPartyPayerRepo ThirdPartyPayerRepository implementation (usable with pool or tx).
type ThirdPartyPayerRepo struct {
	q Querier
}

// NewThirdPartyPayerRepository builds the adapter. Pass a pool or a tx (Querier).
func NewThirdPartyPayerRepository(q Querier) *ThirdPartyPayerRepo {
	return &ThirdPartyPayerRepo{q: q}
}

// ListByCompany returns the company's payers ordered by name.
func (r *ThirdPartyPayerRepo) ListByCompany(ctx context.Context, companyID string) ([]entity.ThirdPartyPayer, error) {
	query := `
		SELECT id, company_id, name, billing_mode, external_billing, created_at, updated_at
		FROM third_party_payers
		WHERE company_id = $1
		ORDER BY name, id`
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list third party payers: %w", err)
	}
	defer rows.Close()

	var payers []entity.ThirdPartyPayer
	for rows.Next() {
		var p entity.ThirdPartyPayer
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.Name, &p.BillingMode, &p.ExternalBilling,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan third party payer: %w", err)
		}
		payers = append(payers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate third party payers: %w", err)
	}
	return payers, nil
}
