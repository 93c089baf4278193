package config

import "strings"

// AppVersion is the version of the application, set at build time.
var AppVersion string

// AppName is the name of the application.
const AppName = "Photomark"

// AppID is the fyne application ID.
const AppID = "com.photomark.app"

// LogWinSubDir is the sub directory for the log files on windows.
var LogWinSubDir = AppName

// LogSubDir is the sub directory for the log files.
var LogSubDir = "." + strings.ToLower(AppName)

// LogExt is the extension for the log files.
var LogExt = ".log"

// TemplatesDirName is the directory holding named watermark templates.
const TemplatesDirName = "templates"

// LastUsedFileName holds the last-used session state for auto-restore.
const LastUsedFileName = "last_used.json"
