package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ExtensionInstall records a package installed from the extensions registry.
type ExtensionInstall struct {
	ID          uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"column:name;type:varchar(214);not null;uniqueIndex" json:"name"`
	Version     string         `gorm:"column:version;type:varchar(64)" json:"version"`
	Type        string         `gorm:"column:type;type:varchar(32);not null" json:"type"`
	Path        string         `gorm:"column:path;type:varchar(1024)" json:"path"`
	Manifest    datatypes.JSON `gorm:"column:manifest" json:"manifest"`
	InstalledAt time.Time      `gorm:"column:installed_at;autoCreateTime" json:"installed_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ExtensionInstall) TableName() string {
	return "extension_installs"
}
