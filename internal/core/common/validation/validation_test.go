package validation_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/condorlabs/comprobantes/internal/core/common/validation"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

var _ = Describe("ValidationBuilder", func() {
	Describe("Required", func() {
		It("should pass for a non-empty string", func() {
			v := validation.NewValidator()
			v.Field("name", "Condor Labs").Required()

			Expect(v.Validate()).To(BeNil())
		})

		It("should fail for an empty string and name the field", func() {
			v := validation.NewValidator()
			v.Field("name", "").Required()

			err := v.Validate()

			Expect(err).NotTo(BeNil())
			Expect(err.Message).To(ContainSubstring("name is required"))
		})

		It("should fail for a nil string pointer", func() {
			var s *string
			v := validation.NewValidator()
			v.Field("name", s).Required()

			Expect(v.Validate()).NotTo(BeNil())
		})
	})

	Describe("RUC", func() {
		It("should accept an 11-digit RUC", func() {
			v := validation.NewValidator()
			v.Field("ruc", "20503000001").RUC()

			Expect(v.Validate()).To(BeNil())
		})

		It("should reject a short RUC", func() {
			v := validation.NewValidator()
			v.Field("ruc", "12345").RUC()

			err := v.Validate()

			Expect(err).NotTo(BeNil())
			Expect(err.Message).To(ContainSubstring("11 digits"))
		})

		It("should reject a RUC with letters", func() {
			v := validation.NewValidator()
			v.Field("ruc", "2050300000A").RUC()

			Expect(v.Validate()).NotTo(BeNil())
		})
	})

	Describe("length rules", func() {
		It("should enforce MinLength", func() {
			v := validation.NewValidator()
			v.Field("password", "short").MinLength(8)

			Expect(v.Validate()).NotTo(BeNil())
		})

		It("should enforce MaxLength", func() {
			v := validation.NewValidator()
			v.Field("name", "okay").MaxLength(3)

			Expect(v.Validate()).NotTo(BeNil())
		})
	})

	Describe("NonNegativeAmount", func() {
		It("should accept zero", func() {
			v := validation.NewValidator()
			v.Field("total", decimal.Zero).NonNegativeAmount()

			Expect(v.Validate()).To(BeNil())
		})

		It("should reject a negative amount", func() {
			v := validation.NewValidator()
			v.Field("total", decimal.NewFromInt(-1)).NonNegativeAmount()

			Expect(v.Validate()).NotTo(BeNil())
		})
	})

	Describe("NotFuture", func() {
		It("should reject a future date", func() {
			v := validation.NewValidator()
			v.Field("fecha_emision", time.Now().Add(24*time.Hour)).NotFuture()

			Expect(v.Validate()).NotTo(BeNil())
		})
	})

	It("should return the first failure across fields", func() {
		v := validation.NewValidator()
		v.Field("client_id", "").Required()
		v.Field("ruc", "bad").RUC()

		err := v.Validate()

		Expect(err).NotTo(BeNil())
		Expect(err.Message).To(ContainSubstring("client_id"))
	})
})
