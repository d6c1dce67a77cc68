package models

// All returns every model for auto migration, parents before children.
func All() []interface{} {
	return []interface{}{
		&Role{},
		&Permission{},
		&RolePermission{},
		&User{},
		&Setting{},
		&Banner{},
		&DirectorMessage{},
		&Card{},
		&News{},
		&Event{},
		&Book{},
		&BookCoupon{},
		&BookOrder{},
		&BookOrderItem{},
		&BookPurchase{},
		&Payment{},
		&Donation{},
		&MembershipPayment{},
		&RecurringPayment{},
		&Category{},
		&Bhajan{},
		&Foundation{},
		&FoundationStat{},
		&FoundationActivity{},
		&FoundationObjective{},
		&FoundationContact{},
		&GopalPariwarMember{},
		&Gaushala{},
		&Sansthan{},
	}
}
