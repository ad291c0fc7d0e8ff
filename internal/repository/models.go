package repository

// Models lists every GORM model, in dependency order, for development auto-migration.
func Models() []interface{} {
	return []interface{}{
		&TripModel{},
		&TripRiderModel{},
		&GroupModel{},
		&GroupMemberModel{},
		&TripGroupModel{},
		&MessageModel{},
	}
}
