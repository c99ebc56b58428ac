package model

// 注文明細。Position はカートの並び順。
type OrderItem struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID       string `gorm:"type:varchar(36);not null;index" json:"-"`
	Position      int    `gorm:"not null" json:"-"`
	ProductID     string `gorm:"type:varchar(64);not null" json:"product"`
	TitleSnapshot string `gorm:"type:varchar(255)" json:"title"`
	Quantity      int64  `gorm:"not null" json:"quantity"`
	UnitPrice     Money  `gorm:"embedded;embeddedPrefix:unit_" json:"unitPrice"`
	// 単価 × 数量
	LineTotal Money `gorm:"embedded;embeddedPrefix:line_" json:"price"`
}
