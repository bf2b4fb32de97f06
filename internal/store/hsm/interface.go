package hsm

type HsmStoreHandler interface {
	SetHornState() error
}

type HsmHandler interface {
	GetState() (HornState, error)
	SetLastNoteId(noteId string) error
	SetApiResetPeriod(seconds int) error
	RecordHorn(delivery DeliveryInfo) error
	GetDeliveries() ([]DeliveryInfo, error)
}
