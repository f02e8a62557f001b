package models

// All lists every persisted model in dependency order. Used by sqlite auto-migration and tests.
func All() []any {
	return []any{
		&Product{},
		&ProductVariant{},
		&VariantSize{},
		&Cart{},
		&CartItem{},
		&Coupon{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&OrderSequence{},
		&Review{},
		&ReviewVote{},
		&ReviewFlag{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
