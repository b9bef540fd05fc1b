package shop

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductEdit carries optional changes to a product. Empty fields are left
// unchanged.
type ProductEdit struct {
	Name  string
	Price string
	Stock string
}

// Products returns every product in catalog order.
func (s *Shop) Products() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Product(nil), s.state.Products...)
}

// Product looks up a product by ID.
func (s *Shop) Product(id int) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := productIndex(s.state, id)
	if i < 0 {
		return Product{}, notFound("product", id)
	}
	return s.state.Products[i], nil
}

// AddProduct adds a product with the next available ID.
func (s *Shop) AddProduct(ctx context.Context, name, price, stock string) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, invalid("name", name, "value is required")
	}
	p, err := parseAmount("price", price)
	if err != nil {
		return Product{}, err
	}
	n, err := parseCount("stock", stock)
	if err != nil {
		return Product{}, err
	}

	var added Product
	err = s.mutate(ctx, "add product", func(st *State) error {
		added = Product{ID: nextProductID(st), Name: name, Price: p, Stock: n}
		st.Products = append(st.Products, added)
		return nil
	})
	if err != nil {
		return Product{}, err
	}

	s.logger.Info().
		Int("product_id", added.ID).
		Str("name", added.Name).
		Int("stock", added.Stock).
		Msg("Product added")
	return added, nil
}

// EditProduct applies the provided fields of edit. Any provided field that
// does not parse fails the whole edit.
func (s *Shop) EditProduct(ctx context.Context, id int, edit ProductEdit) (Product, error) {
	name := strings.TrimSpace(edit.Name)

	var price *decimal.Decimal
	if strings.TrimSpace(edit.Price) != "" {
		v, err := parseAmount("price", edit.Price)
		if err != nil {
			return Product{}, err
		}
		price = &v
	}

	var stock *int
	if strings.TrimSpace(edit.Stock) != "" {
		v, err := parseCount("stock", edit.Stock)
		if err != nil {
			return Product{}, err
		}
		stock = &v
	}

	var updated Product
	err := s.mutate(ctx, "edit product", func(st *State) error {
		i := productIndex(st, id)
		if i < 0 {
			return notFound("product", id)
		}
		p := &st.Products[i]
		if name != "" {
			p.Name = name
		}
		if price != nil {
			p.Price = *price
		}
		if stock != nil {
			p.Stock = *stock
		}
		updated = *p
		return nil
	})
	if err != nil {
		return Product{}, err
	}

	s.logger.Info().
		Int("product_id", updated.ID).
		Str("name", updated.Name).
		Str("price", updated.Price.StringFixed(2)).
		Int("stock", updated.Stock).
		Msg("Product updated")
	return updated, nil
}

// RemoveProduct deletes a product.
func (s *Shop) RemoveProduct(ctx context.Context, id int) error {
	err := s.mutate(ctx, "remove product", func(st *State) error {
		i := productIndex(st, id)
		if i < 0 {
			return notFound("product", id)
		}
		st.Products = append(st.Products[:i], st.Products[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int("product_id", id).Msg("Product removed")
	return nil
}

func productIndex(st *State, id int) int {
	for i, p := range st.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func nextProductID(st *State) int {
	highest := 0
	for _, p := range st.Products {
		if p.ID > highest {
			highest = p.ID
		}
	}
	return highest + 1
}
