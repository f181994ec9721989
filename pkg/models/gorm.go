package models

// ModelsToAutoMigrate returns every model in migration order.
func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&Paper{},
		&PaperSource{},
		&PaperVersion{},
		&Correction{},
		&Author{},
		&Citation{},
		&CitationContext{},
		&Acknowledgment{},
		&AckContext{},
		&Keyword{},
		&Tag{},
		&ExternalLink{},
		&Checksum{},
		&Hub{},
		&HubURL{},
		&HubMapping{},
	}
}
