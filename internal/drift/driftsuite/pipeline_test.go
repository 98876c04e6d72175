// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ProViso Contributors

//go:build integration

package driftsuite_test

import (
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/proviso-lang/proviso/internal/drift"
)

var _ = Describe("DetectDrift end to end", func() {
	const code = `COVENANT MaxLeverage REQUIRES Leverage <= 4.50 TESTED QUARTERLY`

	When("prose and code agree", func() {
		It("reports no drifts", func() {
			report := drift.DetectDrift("Leverage shall not exceed 4.50 to 1.00.", code)
			Expect(report.ID).NotTo(BeEmpty())
			Expect(report.Drifts).To(BeEmpty())
		})
	})

	When("prose only differs by an accepted stylistic variation", func() {
		It("reports no drifts", func() {
			report := drift.DetectDrift("Leverage will not exceed 4.50 to 1.00.", code)
			Expect(report.Drifts).To(BeEmpty())
		})
	})

	When("the prose threshold has moved since the code was written", func() {
		It("flags a single high-severity threshold drift with a code suggestion", func() {
			report := drift.DetectDrift("Leverage shall not exceed 5.00 to 1.00.", code)

			Expect(report.Drifts).To(HaveLen(1))
			d := report.Drifts[0]
			Expect(d.Element).To(Equal(drift.ElementCovenant))
			Expect(d.Category).To(Equal(drift.CategoryThreshold))
			Expect(d.Severity).To(Equal(drift.SeverityHigh))
			Expect(d.SuggestedCode).To(ContainSubstring("Leverage <= 5.00"))
		})
	})

	When("a basket's capacity has been edited in one place only", func() {
		It("classifies the change as capacity drift, not a threshold", func() {
			basketCode := `BASKET GeneralRP CAPACITY $25,000,000 USD`
			report := drift.DetectDrift("The GeneralRP basket permits up to $40,000,000.", basketCode)

			Expect(report.Drifts).To(HaveLen(1))
			Expect(report.Drifts[0].Category).To(Equal(drift.CategoryCapacity))
			Expect(report.Drifts[0].Severity).To(Equal(drift.SeverityHigh))
		})
	})

	When("the document carries section markers", func() {
		It("attributes each drift to its own section", func() {
			sectionedCode := `COVENANT MaxLeverage REQUIRES Leverage <= 4.50 TESTED QUARTERLY

BASKET GeneralRP CAPACITY $25,000,000 USD
`
			prose := "Section 7(a) Leverage shall not exceed 4.50 to 1.00. " +
				"Section 7(b) The GeneralRP basket permits up to $40,000,000."

			report := drift.DetectDrift(prose, sectionedCode)

			Expect(report.Drifts).To(HaveLen(1))
			Expect(report.Drifts[0].Section).To(Equal("7(b)"))
		})
	})
})

var _ = Describe("ValidateRoundTrip end to end", func() {
	const code = `COVENANT MaxLeverage REQUIRES Leverage <= 4.50 TESTED QUARTERLY`

	It("accepts code that renders back to the original prose", func() {
		result := drift.ValidateRoundTrip("Leverage shall not exceed 4.50 to 1.00.", code)
		Expect(result.ID).NotTo(BeEmpty())
		Expect(result.Acceptable).To(BeTrue())
	})

	It("accepts a whitelisted stylistic variation", func() {
		result := drift.ValidateRoundTrip("Leverage will not exceed 4.50 to 1.00.", code)
		Expect(result.Acceptable).To(BeTrue())
	})

	It("rejects a numeric change between the prose and the code", func() {
		result := drift.ValidateRoundTrip("Leverage shall not exceed 6.00 to 1.00.", code)
		Expect(result.Acceptable).To(BeFalse())
		Expect(result.Reason).To(ContainSubstring("numbers differ"))
	})
})
