package domain

// Config mirrors ~/.sheetsh/config.yaml.
type Config struct {
	ConfigFormatVersion string          `yaml:"config_format_version"`
	Backend             BackendSettings `yaml:"backend"`
	Shell               ShellSettings   `yaml:"shell"`
	History             HistorySettings `yaml:"history"`
	Catalog             CatalogSettings `yaml:"catalog"`
}

// BackendSettings describes the automation program commands are sent to.
type BackendSettings struct {
	Command         string        `yaml:"command"`
	Args            []string      `yaml:"args"`
	DispatchTimeout string        `yaml:"dispatch_timeout"`
	QueryTimeout    string        `yaml:"query_timeout"`
	Queries         QueryCommands `yaml:"queries"`
}

// QueryCommands names the backend commands used to inspect live state.
type QueryCommands struct {
	ListDocuments  string `yaml:"list_documents"`
	ListSheets     string `yaml:"list_sheets"`
	ActiveDocument string `yaml:"active_document"`
	ActiveSheet    string `yaml:"active_sheet"`
	DocumentOption string `yaml:"document_option"`
}

// ShellSettings controls the interactive session.
type ShellSettings struct {
	Prompt            string `yaml:"prompt"`
	AutoDetect        bool   `yaml:"auto_detect"`
	CompletionTimeout string `yaml:"completion_timeout"`
	Color             bool   `yaml:"color"`
}

// HistorySettings controls line history persistence.
type HistorySettings struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// CatalogSettings points at an optional user command catalog.
type CatalogSettings struct {
	File string `yaml:"file"`
}
