package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const numberAttempts = 5

// NumberGenerator produces order numbers of the form
// <PREFIX>-<epoch-millis>-<6 hex chars>. Uniqueness is enforced by the unique
// index on orders.order_number and checked before use.
type NumberGenerator struct {
	Prefix string
	now    func() time.Time
	suffix func() string
}

func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{
		Prefix: prefix,
		now:    time.Now,
		suffix: func() string {
			return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
		},
	}
}

func (g *NumberGenerator) next() string {
	return fmt.Sprintf("%s-%d-%s", g.Prefix, g.now().UnixMilli(), g.suffix())
}

// Reserve returns a number not yet used by any order visible to tx.
func (g *NumberGenerator) Reserve(tx *gorm.DB) (string, error) {
	for i := 0; i < numberAttempts; i++ {
		candidate := g.next()
		var taken int64
		if err := tx.Model(&models.Order{}).Where("order_number = ?", candidate).Count(&taken).Error; err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if taken == 0 {
			return candidate, nil
		}
	}
	return "", apperr.Conflict("could not allocate a unique order number, please retry")
}
