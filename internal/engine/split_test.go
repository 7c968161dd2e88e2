package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		source      PaymentSource
		ratio       *decimal.Decimal
		jointRatio  string
		wantMe      string
		wantPartner string
	}{
		{"me_owns_all", "80.00", SourceMe, nil, "0.5", "80.00", "0"},
		{"partner_owns_all", "80.00", SourcePartner, nil, "0.5", "0", "80.00"},
		{"joint_sixty_forty", "100.00", SourceJoint, decPtr("60"), "0.5", "60.00", "40.00"},
		{"joint_household_ratio_fallback", "100.00", SourceJoint, nil, "0.7", "70.00", "30.00"},
		{"joint_uneven_cents", "100.01", SourceJoint, decPtr("50"), "0.5", "50.01", "50.00"},
		{"joint_third", "100.00", SourceJoint, decPtr("33.33"), "0.5", "33.33", "66.67"},
		{"joint_zero_ratio", "100.00", SourceJoint, decPtr("0"), "0.5", "0.00", "100.00"},
		{"joint_full_ratio", "100.00", SourceJoint, decPtr("100"), "0.5", "100.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			me, partner := Split(dec(tt.amount), tt.source, tt.ratio, dec(tt.jointRatio))
			if !me.Equal(dec(tt.wantMe)) {
				t.Errorf("me: got %s, want %s", me, tt.wantMe)
			}
			if !partner.Equal(dec(tt.wantPartner)) {
				t.Errorf("partner: got %s, want %s", partner, tt.wantPartner)
			}
			if !me.Add(partner).Equal(dec(tt.amount)) {
				t.Errorf("shares %s + %s do not reconstruct %s", me, partner, tt.amount)
			}
		})
	}
}

func TestSplitReconstructsExactly(t *testing.T) {
	// Awkward amounts and ratios must still satisfy me + partner == amount.
	amounts := []string{"0.01", "0.03", "99.99", "123.45", "1000.01"}
	ratios := []string{"1", "33.33", "50", "66.67", "99"}
	for _, a := range amounts {
		for _, r := range ratios {
			me, partner := Split(dec(a), SourceJoint, decPtr(r), dec("0.5"))
			if !me.Add(partner).Equal(dec(a)) {
				t.Errorf("amount %s ratio %s: %s + %s != %s", a, r, me, partner, a)
			}
		}
	}
}

func TestSummarizeTransfers(t *testing.T) {
	seeds := []Seed{
		{Name: "Rent", Amount: dec("1200.00"), Source: SourceJoint, UsesJointAccount: true, AmountMe: dec("720.00"), AmountPartner: dec("480.00")},
		{Name: "Groceries", Amount: dec("400.00"), Source: SourceJoint, UsesJointAccount: false, AmountMe: dec("200.00"), AmountPartner: dec("200.00")},
		{Name: "Gym", Amount: dec("45.00"), Source: SourceMe, AmountMe: dec("45.00")},
		{Name: "Streaming", Amount: dec("15.00"), Source: SourcePartner, AmountPartner: dec("15.00")},
	}

	s := SummarizeTransfers(seeds)

	if !s.JointTotal.Equal(dec("1200.00")) {
		t.Errorf("joint total: got %s, want 1200.00", s.JointTotal)
	}
	if !s.JointMe.Equal(dec("720.00")) || !s.JointPartner.Equal(dec("480.00")) {
		t.Errorf("joint shares: got %s / %s", s.JointMe, s.JointPartner)
	}
	if !s.SetAsideMe.Equal(dec("245.00")) {
		t.Errorf("me set-aside: got %s, want 245.00", s.SetAsideMe)
	}
	if !s.SetAsidePartner.Equal(dec("215.00")) {
		t.Errorf("partner set-aside: got %s, want 215.00", s.SetAsidePartner)
	}

	// Every seed lands in exactly one bucket.
	total := s.JointTotal.Add(s.SetAsideMe).Add(s.SetAsidePartner)
	if !total.Equal(dec("1660.00")) {
		t.Errorf("buckets sum to %s, want 1660.00", total)
	}
}
