package model

type RecordFlag struct {
	RecordID string `gorm:"column:record_id;type:text;not null;primaryKey"`
	Flag     string `gorm:"column:flag;type:text;not null;primaryKey"`
}

func (RecordFlag) TableName() string {
	return "record_flags"
}
