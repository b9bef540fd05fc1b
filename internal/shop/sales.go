package shop

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goodtune/pesonet/internal/metrics"
	"github.com/shopspring/decimal"
)

// Sell takes quantity units of a product out of stock and records the sale.
// There is no partial fulfillment.
func (s *Shop) Sell(ctx context.Context, productID, quantity int) (Receipt, error) {
	var receipt Receipt
	err := s.mutate(ctx, "sell", func(st *State) error {
		i := productIndex(st, productID)
		if i < 0 {
			return notFound("product", productID)
		}
		p := &st.Products[i]

		if quantity <= 0 {
			return invalid("quantity", strconv.Itoa(quantity), "must be positive")
		}
		if quantity > p.Stock {
			return invalid("quantity", strconv.Itoa(quantity), fmt.Sprintf("only %d in stock", p.Stock))
		}

		p.Stock -= quantity
		amount := p.Price.Mul(decimal.NewFromInt(int64(quantity)))
		t := s.appendTransaction(st, s.clock.Now(), KindProduct, amount, fmt.Sprintf("%dx %s", quantity, p.Name))

		sold := *p
		receipt = Receipt{Transaction: t, Product: &sold}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	amount, _ := receipt.Amount().Float64()
	metrics.SalesTotal.WithLabelValues(receipt.Product.Name).Add(float64(quantity))
	metrics.IncomeTotal.WithLabelValues(string(KindProduct)).Add(amount)

	s.logger.Info().
		Int("product_id", productID).
		Int("quantity", quantity).
		Int("stock_left", receipt.Product.Stock).
		Str("amount", receipt.Amount().StringFixed(2)).
		Msg("Product sold")
	return receipt, nil
}
