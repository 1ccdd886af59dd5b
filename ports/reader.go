// Package ports defines the interfaces between the application core and its
// adapters.
package ports

import (
	"equitrends/domain/panel"
)

// DatasetReader loads a panel dataset from an external source.
type DatasetReader interface {
	Read() (*panel.Dataset, error)
}
