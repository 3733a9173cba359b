package category_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/category"
	categoryDatamodel "github.com/condorlabs/comprobantes/internal/core/datamodel/category"
)

func TestCategoryService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CategoryService Suite")
}

type mockCategoryRepository struct {
	categories map[string]*categoryDatamodel.ExpenseCategory
	getError   error
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[string]*categoryDatamodel.ExpenseCategory)}
}

func (m *mockCategoryRepository) GetAllByClient(clientID string) ([]*categoryDatamodel.ExpenseCategory, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	var out []*categoryDatamodel.ExpenseCategory
	for _, c := range m.categories {
		if c.ClientID == clientID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCategoryRepository) GetByID(id string) (*categoryDatamodel.ExpenseCategory, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.categories[id], nil
}

func (m *mockCategoryRepository) Create(c *categoryDatamodel.ExpenseCategory) error {
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepository) Update(c *categoryDatamodel.ExpenseCategory) error {
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepository) Delete(id string) error {
	delete(m.categories, id)
	return nil
}

var _ = Describe("CategoryService", func() {
	var (
		svc      *category.Service
		mockRepo *mockCategoryRepository
		logger   *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = newMockCategoryRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = category.NewService(mockRepo, logger)
	})

	Describe("Create", func() {
		It("should create an active category for the client", func() {
			c, err := svc.Create(category.CreateCategoryDTO{
				ClientID:    "client-1",
				Name:        "Viáticos",
				Description: "Viajes y alimentación",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(c.IsActive).To(BeTrue())
			Expect(c.ClientID).To(Equal("client-1"))
		})

		It("should require a name", func() {
			_, err := svc.Create(category.CreateCategoryDTO{ClientID: "client-1"})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetActiveByClient", func() {
		It("should skip deactivated categories", func() {
			active, err := svc.Create(category.CreateCategoryDTO{ClientID: "client-1", Name: "Viáticos"})
			Expect(err).NotTo(HaveOccurred())

			other, err := svc.Create(category.CreateCategoryDTO{ClientID: "client-1", Name: "Servicios"})
			Expect(err).NotTo(HaveOccurred())
			isActive := false
			_, err = svc.Update(other.ID, category.UpdateCategoryDTO{IsActive: &isActive})
			Expect(err).NotTo(HaveOccurred())

			categories, err := svc.GetActiveByClient("client-1")

			Expect(err).NotTo(HaveOccurred())
			Expect(categories).To(HaveLen(1))
			Expect(categories[0].ID).To(Equal(active.ID))
		})

		It("should propagate repository failures", func() {
			mockRepo.getError = errors.New("db down")

			_, err := svc.GetActiveByClient("client-1")

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetByID", func() {
		It("should return not found for an unknown category", func() {
			_, err := svc.GetByID("no-such-id")

			Expect(err).To(Equal(internal.ErrCategoryNotFound))
		})
	})

	Describe("Delete", func() {
		It("should remove an existing category", func() {
			c, err := svc.Create(category.CreateCategoryDTO{ClientID: "client-1", Name: "Viáticos"})
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.Delete(c.ID)).To(Succeed())

			_, err = svc.GetByID(c.ID)
			Expect(err).To(Equal(internal.ErrCategoryNotFound))
		})
	})
})
