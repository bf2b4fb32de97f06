package env

const (
	RootDir  = "/etc/jitsibot"
	StoreDir = "/etc/jitsibot/store"
	LogDir   = "/etc/jitsibot/log"

	DefaultConfigPath = "/etc/jitsibot/config.yaml"
	AuditLogPath      = "/etc/jitsibot/log/audit.log"

	// state file name kept from the first deployment; renaming it
	// would orphan existing bot state
	StateFileName = "JitsiBot00.storage"
)
