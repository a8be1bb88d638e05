package internal

type Config struct {
	BadgerFilepath   string `env:"BADGER_FILEPATH,required=true"`
	LogLevel         string `env:"LOG_LEVEL,default=INFO"`
	MaxContentLength int    `env:"MAX_CONTENT_LENGTH,default=4096"`
}
