package providers

import "github.com/jackc/pgx/v5/pgxpool"

type Providers struct {
	TemplateProvider *TemplateProvider
}

func New(db *pgxpool.Pool, cacheSize int) (*Providers, error) {
	templateProvider, err := NewTemplateProvider(db, cacheSize)
	if err != nil {
		return nil, err
	}

	return &Providers{
		TemplateProvider: templateProvider,
	}, nil
}
