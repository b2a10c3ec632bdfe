package billing

import (
	"time"

	"github.com/CompaniTech/compani-api-sub000/internal/domain"
	"github.com/CompaniTech/compani-api-sub000/internal/domain/entity"
)

// SelectRateVersion returns the service rate version effective at date: the
// latest version whose StartDate is not after it. A subscription whose service
// has no effective version is upstream data corruption and aborts the batch.
func SelectRateVersion(date time.Time, service *entity.Service) (*entity.ServiceRateVersion, error) {
	var selected *entity.ServiceRateVersion
	for i := range service.Versions {
		v := &service.Versions[i]
		if v.StartDate.After(date) {
			continue
		}
		if selected == nil || v.StartDate.After(selected.StartDate) {
			selected = v
		}
	}
	if selected == nil {
		return nil, domain.ErrMissingRateVersion
	}
	return selected, nil
}

// SelectFunding picks, among the customer's fundings, the one applying to the
// given date: its effective window must cover the date and its eligible
// care days must contain the date's care-day index (7 on public holidays).
// At most one match is expected; the first one wins. A nil result means the
// event is billed to the customer in full.
func SelectFunding(date time.Time, fundings []entity.Funding, isHoliday bool) (*entity.Funding, *entity.FundingVersion) {
	day := entity.CareDayIndex(date, isHoliday)
	for i := range fundings {
		f := &fundings[i]
		if !f.CoversDay(day) {
			continue
		}
		if v := f.VersionAt(date); v != nil {
			return f, v
		}
	}
	return nil, nil
}
