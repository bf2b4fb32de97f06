package scanner

import "context"

type ScannerHandler interface {
	Run(ctx context.Context) error
	ProcessNotifications(ctx context.Context) error
	Status() StatusModel
	TriggerHorn(ctx context.Context) (deliveryId string, err error)
	Wake()
}
