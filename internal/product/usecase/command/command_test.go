package command

import (
	"context"
	"strings"
	"testing"

	orderdomain "github.com/tair/gadget-inventory/internal/order/domain"
	"github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/internal/storage/memory"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/validation"
)

var (
	alice   = auth.Caller{ID: "alice", Role: auth.RoleUser}
	bob     = auth.Caller{ID: "bob", Role: auth.RoleUser}
	manager = auth.Caller{ID: "boss", Role: auth.RoleManager}
)

func newCreateHandler(repo domain.ProductRepository) *CreateProductHandler {
	return NewCreateProductHandler(repo, nil, validation.New())
}

func mustCreate(t *testing.T, h *CreateProductHandler, cmd CreateProductCommand) *domain.Product {
	t.Helper()
	p, err := h.Handle(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create %q: %v", cmd.Name, err)
	}
	return p
}

func TestCreateProductGeneratesSequentialSlugs(t *testing.T) {
	repo := memory.NewStore().Products()
	h := newCreateHandler(repo)

	var slugs []string
	for i := 0; i < 3; i++ {
		p := mustCreate(t, h, CreateProductCommand{Caller: alice, Name: "Galaxy S24", Price: 999, Quantity: 5})
		slugs = append(slugs, p.Slug)
	}

	want := []string{"Galaxy-S24", "Galaxy-S24-1", "Galaxy-S24-2"}
	for i := range want {
		if slugs[i] != want[i] {
			t.Errorf("slug %d = %q, want %q", i, slugs[i], want[i])
		}
	}
}

func TestCreateProductDefaults(t *testing.T) {
	repo := memory.NewStore().Products()
	p := mustCreate(t, newCreateHandler(repo), CreateProductCommand{Caller: alice, Name: "Pixel", Price: 10})

	if p.ID == "" {
		t.Error("expected generated id")
	}
	if p.UserID != "alice" {
		t.Errorf("owner = %q, want alice", p.UserID)
	}
	if !p.IsAvailable {
		t.Error("expected product to be available by default")
	}
	if p.IsDeleted {
		t.Error("new product must not be deleted")
	}
}

func TestCreateProductExplicitSlugConflict(t *testing.T) {
	repo := memory.NewStore().Products()
	h := newCreateHandler(repo)
	mustCreate(t, h, CreateProductCommand{Caller: alice, Name: "Phone", Slug: "my-phone", Price: 1})

	_, err := h.Handle(context.Background(), CreateProductCommand{Caller: bob, Name: "Other", Slug: "my-phone", Price: 1})
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateProductSlugReusableAfterDelete(t *testing.T) {
	repo := memory.NewStore().Products()
	h := newCreateHandler(repo)
	p := mustCreate(t, h, CreateProductCommand{Caller: alice, Name: "Phone", Slug: "my-phone", Price: 1})

	if err := NewDeleteProductHandler(repo, nil).Handle(context.Background(), DeleteProductCommand{ID: p.ID, Caller: alice}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	again := mustCreate(t, h, CreateProductCommand{Caller: alice, Name: "Phone", Slug: "my-phone", Price: 1})
	if again.Slug != "my-phone" {
		t.Errorf("slug = %q, want my-phone", again.Slug)
	}
}

func TestCreateProductValidation(t *testing.T) {
	repo := memory.NewStore().Products()
	_, err := newCreateHandler(repo).Handle(context.Background(), CreateProductCommand{Caller: alice, Name: "Bad", Price: -1})
	if apperror.KindOf(err) != apperror.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
	if !strings.Contains(apperror.Message(err), "price") {
		t.Errorf("expected message to name price, got %q", apperror.Message(err))
	}
}

func TestUpdateProductOwnership(t *testing.T) {
	repo := memory.NewStore().Products()
	p := mustCreate(t, newCreateHandler(repo), CreateProductCommand{Caller: alice, Name: "Phone", Price: 1})
	h := NewUpdateProductHandler(repo, nil, validation.New())

	price := 20.0
	_, err := h.Handle(context.Background(), UpdateProductCommand{ID: p.ID, Caller: bob, Patch: ProductPatch{Price: &price}})
	if apperror.KindOf(err) != apperror.KindForbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	updated, err := h.Handle(context.Background(), UpdateProductCommand{ID: p.ID, Caller: manager, Patch: ProductPatch{Price: &price}})
	if err != nil {
		t.Fatalf("manager update: %v", err)
	}
	if updated.Price != 20 {
		t.Errorf("price = %v, want 20", updated.Price)
	}
}

func TestUpdateProductMergesNestedFields(t *testing.T) {
	repo := memory.NewStore().Products()
	p := mustCreate(t, newCreateHandler(repo), CreateProductCommand{
		Caller:    alice,
		Name:      "Phone",
		Price:     1,
		Features:  domain.Features{CameraResolution: "50MP", StorageCapacity: "128GB"},
		Dimension: domain.Dimension{Height: 15, Width: 7, Depth: 0.8},
	})

	h := NewUpdateProductHandler(repo, nil, validation.New())
	updated, err := h.Handle(context.Background(), UpdateProductCommand{
		ID:     p.ID,
		Caller: alice,
		Patch: ProductPatch{
			Features:  &domain.Features{StorageCapacity: "256GB"},
			Dimension: &domain.Dimension{Width: 7.5},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Features.CameraResolution != "50MP" || updated.Features.StorageCapacity != "256GB" {
		t.Errorf("unexpected features %+v", updated.Features)
	}
	if updated.Dimension.Height != 15 || updated.Dimension.Width != 7.5 || updated.Dimension.Depth != 0.8 {
		t.Errorf("unexpected dimension %+v", updated.Dimension)
	}

	stored, _ := repo.FindByID(context.Background(), p.ID)
	if stored.Features.StorageCapacity != "256GB" {
		t.Errorf("update not persisted: %+v", stored.Features)
	}
}

// saleAfterRead commits a sale right after the first product read
type saleAfterRead struct {
	domain.ProductRepository
	sell func(ctx context.Context) error
	done bool
}

func (r *saleAfterRead) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := r.ProductRepository.FindByID(ctx, id)
	if err != nil || r.done {
		return p, err
	}
	r.done = true
	return p, r.sell(ctx)
}

func TestUpdateProductKeepsConcurrentSale(t *testing.T) {
	store := memory.NewStore()
	p := mustCreate(t, newCreateHandler(store.Products()), CreateProductCommand{Caller: alice, Name: "Phone", Price: 1, Quantity: 10})

	repo := &saleAfterRead{
		ProductRepository: store.Products(),
		sell: func(ctx context.Context) error {
			return store.Orders().WithinTransaction(ctx, func(ctx context.Context, tx orderdomain.Tx) error {
				return tx.DecrementStock(ctx, p.ID, 3)
			})
		},
	}
	h := NewUpdateProductHandler(repo, nil, validation.New())

	name := "Phone X"
	updated, err := h.Handle(context.Background(), UpdateProductCommand{ID: p.ID, Caller: alice, Patch: ProductPatch{Name: &name}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Phone X" || updated.Quantity != 7 {
		t.Errorf("updated = %s/%d, want Phone X/7", updated.Name, updated.Quantity)
	}

	stored, err := store.Products().FindByID(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Quantity != 7 {
		t.Errorf("stored quantity = %d, want 7", stored.Quantity)
	}
}

func TestApplyPatchReportsChangedFields(t *testing.T) {
	p := &domain.Product{Name: "Phone", Slug: "phone", Quantity: 4}
	name, slug := "Phone 2", "  "
	fields := applyPatch(p, ProductPatch{
		Name:     &name,
		Slug:     &slug,
		Features: &domain.Features{ScreenSize: "6.1"},
	})

	want := []string{"features.screenSize", "name"}
	if strings.Join(fields, ",") != strings.Join(want, ",") {
		t.Errorf("fields = %v, want %v", fields, want)
	}
	if p.Slug != "phone" || p.Quantity != 4 {
		t.Errorf("untouched fields changed: %+v", p)
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	repo := memory.NewStore().Products()
	h := NewUpdateProductHandler(repo, nil, validation.New())
	_, err := h.Handle(context.Background(), UpdateProductCommand{ID: "missing", Caller: manager})
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProductSlugConflict(t *testing.T) {
	repo := memory.NewStore().Products()
	create := newCreateHandler(repo)
	mustCreate(t, create, CreateProductCommand{Caller: alice, Name: "One", Slug: "one", Price: 1})
	two := mustCreate(t, create, CreateProductCommand{Caller: alice, Name: "Two", Slug: "two", Price: 1})

	slug := "one"
	_, err := NewUpdateProductHandler(repo, nil, validation.New()).Handle(context.Background(),
		UpdateProductCommand{ID: two.ID, Caller: alice, Patch: ProductPatch{Slug: &slug}})
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteProductForbiddenForOtherUser(t *testing.T) {
	repo := memory.NewStore().Products()
	p := mustCreate(t, newCreateHandler(repo), CreateProductCommand{Caller: alice, Name: "Phone", Price: 1})

	err := NewDeleteProductHandler(repo, nil).Handle(context.Background(), DeleteProductCommand{ID: p.ID, Caller: bob})
	if apperror.KindOf(err) != apperror.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := repo.FindByID(context.Background(), p.ID); err != nil {
		t.Errorf("product should still exist: %v", err)
	}
}

func TestDeleteProductsIsAllOrNothing(t *testing.T) {
	repo := memory.NewStore().Products()
	create := newCreateHandler(repo)
	mine := mustCreate(t, create, CreateProductCommand{Caller: alice, Name: "Mine", Price: 1})
	theirs := mustCreate(t, create, CreateProductCommand{Caller: bob, Name: "Theirs", Price: 1})

	h := NewDeleteProductsHandler(repo, nil)
	_, err := h.Handle(context.Background(), DeleteProductsCommand{
		IDs:    []string{mine.ID, theirs.ID, "ghost"},
		Caller: alice,
	})
	if apperror.KindOf(err) != apperror.KindUnprocessable {
		t.Fatalf("expected unprocessable, got %v", err)
	}
	msg := apperror.Message(err)
	if !strings.Contains(msg, theirs.ID) || !strings.Contains(msg, "ghost") || strings.Contains(msg, mine.ID) {
		t.Errorf("message should list exactly the invalid ids, got %q", msg)
	}
	if _, err := repo.FindByID(context.Background(), mine.ID); err != nil {
		t.Errorf("no product may be deleted when the batch is rejected: %v", err)
	}

	n, err := h.Handle(context.Background(), DeleteProductsCommand{IDs: []string{mine.ID, theirs.ID}, Caller: manager})
	if err != nil {
		t.Fatalf("manager bulk delete: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
}

func TestDeleteProductsRejectsEmptyBatch(t *testing.T) {
	_, err := NewDeleteProductsHandler(memory.NewStore().Products(), nil).Handle(context.Background(), DeleteProductsCommand{Caller: manager})
	if apperror.KindOf(err) != apperror.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}
