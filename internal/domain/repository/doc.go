// Package repository define las entidades persistidas y los contratos de
// repositorio del dominio.
//
// Estas interfaces son independientes del almacenamiento subyacente (badger,
// PostgreSQL jsonb, FileSystem). Las implementaciones viven en internal/store.
//
//	┌─────────────────────────────────────────────────────┐
//	│           Services / Controllers                    │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│   domain/repository (Entity, User, UserRepository)  │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│   store.Repository[T] (base genérica)               │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	         ┌──────────────┼──────────────┐
//	         ▼              ▼              ▼
//	┌─────────────┐  ┌─────────────┐  ┌─────────────┐
//	│   badger    │  │  postgres   │  │     fs      │
//	└─────────────┘  └─────────────┘  └─────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
//   - "no existe" en lecturas puntuales es (nil, nil), no un error
package repository
