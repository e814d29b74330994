package db_models

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Plan{},
		&Subscription{},
		&Payment{},
		&Link{},
		&Click{},
	}
}
