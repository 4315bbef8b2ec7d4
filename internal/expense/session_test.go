package expense

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/expensary/expensary/internal/classify"
	"github.com/expensary/expensary/internal/preview"
	"github.com/expensary/expensary/internal/scanning"
)

var _ = Describe("Session", func() {
	var session *Session

	BeforeEach(func() {
		session = NewSession("session-1", classify.DefaultTable())
	})

	It("starts idle with no vendor, suggestion or category", func() {
		snap := session.Snapshot()
		Expect(snap.ID).To(Equal("session-1"))
		Expect(snap.Stage).To(Equal(scanning.StageIdle))
		Expect(snap.Vendor).To(BeEmpty())
		Expect(snap.Suggestion).To(BeNil())
		Expect(snap.Category).To(BeEmpty())
	})

	Describe("stage updates", func() {
		BeforeEach(func() {
			session.OnStageUpdate(scanning.StageUpdate{Stage: scanning.StageUploading, Progress: 20})
			session.OnStageUpdate(scanning.StageUpdate{Stage: scanning.StageAnalyzing, Progress: 60})
		})

		It("reflects the tracker state in the snapshot", func() {
			snap := session.Snapshot()
			Expect(snap.Stage).To(Equal(scanning.StageAnalyzing))
			Expect(snap.Progress).To(Equal(60))
		})

		It("derives per-stage statuses", func() {
			snap := session.Snapshot()
			Expect(snap.Stages).To(ContainElement(scanning.StageStatus{Stage: scanning.StageUploading, Status: scanning.StatusPast}))
			Expect(snap.Stages).To(ContainElement(scanning.StageStatus{Stage: scanning.StageAnalyzing, Status: scanning.StatusCurrent}))
		})

		It("surfaces an error stage with its message", func() {
			session.OnStageUpdate(scanning.StageUpdate{Stage: scanning.StageError, Message: "scan failed"})
			snap := session.Snapshot()
			Expect(snap.Stage).To(Equal(scanning.StageError))
			Expect(snap.Error).To(Equal("scan failed"))
			Expect(snap.Progress).To(BeZero())
		})

		It("resets the tracker when a new upload starts", func() {
			session.StartUpload([]byte("data"), "application/octet-stream")
			Expect(session.Snapshot().Stage).To(Equal(scanning.StageIdle))
		})
	})

	Describe("suggestion lifecycle", func() {
		When("the vendor matches a keyword and no category is set", func() {
			BeforeEach(func() {
				session.OnVendorExtracted("Uber Trip to Airport")
			})

			It("offers a suggestion with the triggering keyword", func() {
				snap := session.Snapshot()
				Expect(snap.Suggestion).NotTo(BeNil())
				Expect(snap.Suggestion.Category).To(Equal(classify.CategoryTravel))
				Expect(snap.Suggestion.Keyword).To(Equal("uber"))
			})

			It("clears the suggestion when it is accepted", func() {
				category, ok := session.AcceptSuggestion()
				Expect(ok).To(BeTrue())
				Expect(category).To(Equal(classify.CategoryTravel))

				snap := session.Snapshot()
				Expect(snap.Suggestion).To(BeNil())
				Expect(snap.Category).To(Equal(classify.CategoryTravel))
				Expect(snap.CategorySource).To(Equal(CategorySourceSuggested))
			})

			It("does not re-offer after acceptance even for the same vendor", func() {
				_, ok := session.AcceptSuggestion()
				Expect(ok).To(BeTrue())

				session.OnVendorExtracted("Uber Trip to Airport")
				Expect(session.Snapshot().Suggestion).To(BeNil())
			})

			It("clears the suggestion when a manual category is set", func() {
				session.SetCategory(classify.CategoryOther)
				snap := session.Snapshot()
				Expect(snap.Suggestion).To(BeNil())
				Expect(snap.Category).To(Equal(classify.CategoryOther))
				Expect(snap.CategorySource).To(Equal(CategorySourceManual))
			})

			It("replaces the suggestion when the vendor changes", func() {
				session.OnVendorExtracted("Hilton Garden Inn")
				snap := session.Snapshot()
				Expect(snap.Suggestion).NotTo(BeNil())
				Expect(snap.Suggestion.Category).To(Equal(classify.CategoryLodging))
			})

			It("drops the suggestion when the vendor changes to an unknown one", func() {
				session.OnVendorExtracted("Acme Widgets LLC")
				Expect(session.Snapshot().Suggestion).To(BeNil())
			})
		})

		When("a category is already set", func() {
			BeforeEach(func() {
				session.SetCategory(classify.CategoryFood)
				session.OnVendorExtracted("Uber Trip to Airport")
			})

			It("never offers a suggestion", func() {
				Expect(session.Snapshot().Suggestion).To(BeNil())
			})
		})

		When("the vendor matches nothing", func() {
			BeforeEach(func() {
				session.OnVendorExtracted("Acme Widgets LLC")
			})

			It("offers no suggestion", func() {
				Expect(session.Snapshot().Suggestion).To(BeNil())
			})

			It("cannot be accepted", func() {
				_, ok := session.AcceptSuggestion()
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("preview", func() {
		It("exposes the renderer's current result", func() {
			gate := make(chan struct{})
			renderer := preview.NewRendererWithDecoder(func(kind preview.Kind, data []byte, contentType string) preview.Result {
				<-gate
				return preview.Result{State: preview.StateReady, PNG: data}
			})
			session = newSessionWithRenderer("session-1", classify.DefaultTable(), renderer)

			session.StartUpload([]byte("file-a"), "image/jpeg")
			Expect(session.Preview().State).To(Equal(preview.StatePending))

			close(gate)
			Eventually(func() preview.State {
				return session.Preview().State
			}).Should(Equal(preview.StateReady))
		})

		It("keeps the preview when the scan errors afterwards", func() {
			renderer := preview.NewRendererWithDecoder(func(kind preview.Kind, data []byte, contentType string) preview.Result {
				return preview.Result{State: preview.StateReady, PNG: data}
			})
			session = newSessionWithRenderer("session-1", classify.DefaultTable(), renderer)

			session.StartUpload([]byte("file-a"), "image/jpeg")
			Eventually(func() preview.State {
				return session.Preview().State
			}).Should(Equal(preview.StateReady))

			session.OnStageUpdate(scanning.StageUpdate{Stage: scanning.StageError, Message: "scan failed"})
			Expect(session.Preview().State).To(Equal(preview.StateReady))
		})
	})
})
