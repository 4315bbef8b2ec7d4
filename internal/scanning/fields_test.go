package scanning

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseFieldsJSON", func() {
	var (
		jsonInput string
		fields    *Fields
		err       error
	)

	JustBeforeEach(func() {
		fields, err = parseFieldsJSON(jsonInput)
	})

	When("parsing valid JSON", func() {
		BeforeEach(func() {
			jsonInput = `{"vendor": "Uber", "date": "2024-01-15", "amount": 25.99}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the vendor correctly", func() {
			Expect(fields.Vendor).To(Equal("Uber"))
		})

		It("should parse the date correctly", func() {
			Expect(fields.Date).To(Equal("2024-01-15"))
		})

		It("should parse the amount correctly", func() {
			Expect(fields.Amount).To(Equal(25.99))
		})
	})

	When("parsing JSON with markdown code blocks", func() {
		BeforeEach(func() {
			jsonInput = "```json\n{\"vendor\": \"Starbucks\", \"date\": \"2024-01-15\", \"amount\": 10.50}\n```"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the vendor correctly", func() {
			Expect(fields.Vendor).To(Equal("Starbucks"))
		})
	})

	When("parsing JSON surrounded by prose", func() {
		BeforeEach(func() {
			jsonInput = `Here is the extracted data: {"vendor": "Hilton", "date": "2024-02-01", "amount": 199.00} Let me know if you need anything else.`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should extract the embedded object", func() {
			Expect(fields.Vendor).To(Equal("Hilton"))
			Expect(fields.Amount).To(Equal(199.00))
		})
	})

	When("the date uses a slash format", func() {
		BeforeEach(func() {
			jsonInput = `{"vendor": "Staples", "date": "2024/03/05", "amount": 12.00}`
		})

		It("normalizes it to ISO 8601", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Date).To(Equal("2024-03-05"))
		})
	})

	When("the date is unparseable", func() {
		BeforeEach(func() {
			jsonInput = `{"vendor": "Staples", "date": "sometime last week", "amount": 12.00}`
		})

		It("falls back to today", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Date).To(Equal(time.Now().Format("2006-01-02")))
		})
	})

	When("the date is missing", func() {
		BeforeEach(func() {
			jsonInput = `{"vendor": "Staples", "amount": 12.00}`
		})

		It("falls back to today", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Date).To(Equal(time.Now().Format("2006-01-02")))
		})
	})

	When("the vendor has surrounding whitespace", func() {
		BeforeEach(func() {
			jsonInput = `{"vendor": "  Delta Air Lines  ", "date": "2024-01-15", "amount": 420.00}`
		})

		It("trims it", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Vendor).To(Equal("Delta Air Lines"))
		})
	})

	When("the response contains no JSON object", func() {
		BeforeEach(func() {
			jsonInput = "I could not read the receipt."
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("no JSON object"))
		})
	})

	When("the response contains malformed JSON", func() {
		BeforeEach(func() {
			jsonInput = `{"vendor": "Uber", "amount": }`
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("IsHEIC", func() {
	It("recognizes a heic ftyp box", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
		data = append(data, make([]byte, 8)...)
		Expect(IsHEIC(data)).To(BeTrue())
	})

	It("rejects short data", func() {
		Expect(IsHEIC([]byte("ftyp"))).To(BeFalse())
	})

	It("rejects PNG data", func() {
		data := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 8)...)
		Expect(IsHEIC(data)).To(BeFalse())
	})
})
