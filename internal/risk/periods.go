package risk

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/esg-suite/dart-sync/internal/model"
	"github.com/esg-suite/dart-sync/internal/store"
)

// AutoPeriod picks the most recent reporting period likely to be filed by
// the given date. Filings lag the period they cover, so the first quarter
// of a year still looks at last year's Q3 report.
func AutoPeriod(today time.Time) (businessYear, reportCode string) {
	year := today.Year()
	switch m := today.Month(); {
	case m >= time.January && m <= time.March:
		return strconv.Itoa(year - 1), model.ReportQ3
	case m >= time.April && m <= time.June:
		return strconv.Itoa(year - 1), model.ReportAnnual
	case m >= time.July && m <= time.September:
		return strconv.Itoa(year), model.ReportQ1
	default:
		return strconv.Itoa(year), model.ReportHalf
	}
}

// ValidatePeriod checks a manually supplied (year, report code) pair.
func ValidatePeriod(businessYear, reportCode string) error {
	year, err := strconv.Atoi(businessYear)
	if err != nil || year < 2000 || year > 2030 {
		return eris.Wrapf(model.ErrInvalidArgument, "risk: business year %q", businessYear)
	}
	if !model.ValidReportCode(reportCode) {
		return eris.Wrapf(model.ErrInvalidArgument, "risk: report code %q", reportCode)
	}
	return nil
}

// AvailablePeriods lists the (year, report code) tuples a company has
// statement rows for, newest first, marking the tuple the automatic
// selection would pick today.
func AvailablePeriods(ctx context.Context, st store.Store, corpCode string, today time.Time) ([]model.AvailablePeriod, error) {
	periods, err := st.DistinctPeriods(ctx, corpCode)
	if err != nil {
		return nil, err
	}

	autoYear, autoCode := AutoPeriod(today)
	out := make([]model.AvailablePeriod, 0, len(periods))
	for _, p := range periods {
		out = append(out, model.AvailablePeriod{
			BusinessYear:   p.BusinessYear,
			ReportCode:     p.ReportCode,
			ReportName:     model.ReportName(p.ReportCode),
			PeriodLabel:    model.PeriodLabel(p.BusinessYear, p.ReportCode),
			RowCount:       p.RowCount,
			IsAutoSelected: p.BusinessYear == autoYear && p.ReportCode == autoCode,
		})
	}
	return out, nil
}
