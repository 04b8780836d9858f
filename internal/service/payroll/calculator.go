package payroll

import (
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	daysPerMonth      = decimal.NewFromInt(30)
	absentMultiplier  = decimal.NewFromInt(2)
	partialMultiplier = decimal.NewFromFloat(0.5)
)

// Calculate derives the monthly deduction breakdown. An absence costs two
// days of salary; late days beyond the allowance and half days cost half a
// day each. Attendance amounts are rounded to two places; chargeback and
// refund are summed as given. The payable salary never goes below zero.
func Calculate(in payroll.DeductionInput) (payroll.DeductionBreakdown, error) {
	for _, v := range []decimal.Decimal{in.BaseSalary, in.Bonus, in.Commission, in.Chargeback, in.Refund} {
		if v.IsNegative() {
			return payroll.DeductionBreakdown{}, payroll.ErrNegativeSalaryComponents
		}
	}

	perDay := in.BaseSalary.Div(daysPerMonth)

	excessLate := in.TotalLateDays - in.MonthlyLateAllowance
	if excessLate < 0 {
		excessLate = 0
	}

	absent := decimal.NewFromInt(int64(in.TotalAbsentDays)).Mul(perDay).Mul(absentMultiplier).Round(2)
	late := decimal.NewFromInt(int64(excessLate)).Mul(perDay).Mul(partialMultiplier).Round(2)
	half := decimal.NewFromInt(int64(in.TotalHalfDays)).Mul(perDay).Mul(partialMultiplier).Round(2)
	total := absent.Add(late).Add(half).Add(in.Chargeback).Add(in.Refund)

	payable := in.BaseSalary.Add(in.Bonus).Add(in.Commission).Sub(total)
	if payable.IsNegative() {
		payable = decimal.Zero
	}

	return payroll.DeductionBreakdown{
		PerDaySalary:        perDay.Round(2),
		AbsentDays:          in.TotalAbsentDays,
		LateDays:            in.TotalLateDays,
		ExcessLateDays:      excessLate,
		HalfDays:            in.TotalHalfDays,
		AbsentDeduction:     absent,
		LateDeduction:       late,
		HalfDayDeduction:    half,
		ChargebackDeduction: in.Chargeback,
		RefundDeduction:     in.Refund,
		TotalDeduction:      total,
		BaseSalary:          in.BaseSalary.Round(2),
		Bonus:               in.Bonus.Round(2),
		Commission:          in.Commission.Round(2),
		PayableSalary:       payable.Round(2),
	}, nil
}
