package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/medalboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the sheet locator is required", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, config.ErrMissingLocator), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sheet_url")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When only a sheet id is given", func() {
			_ = os.Setenv("MEDALS_SHEET_ID", "1VwqIW7xtGt")
			cfg, err := config.Load(ctx)

			convey.Convey("Then it serves as the sheet locator", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Locator().SheetURL, convey.ShouldEqual, "1VwqIW7xtGt")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MEDALS_ADDR", ":8080")
			_ = os.Setenv("MEDALS_STORE", "sheets")
			_ = os.Setenv("MEDALS_SHEET_URL", "https://docs.google.com/spreadsheets/d/abc/edit")
			_ = os.Setenv("MEDALS_CREDENTIALS_JSON", `{"type":"service_account"}`)
			_ = os.Setenv("MEDALS_SAVE_MODE", "overwrite")
			_ = os.Setenv("MEDALS_TOP_N", "5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SheetURL, convey.ShouldEqual, "https://docs.google.com/spreadsheets/d/abc/edit")
				convey.So(cfg.CredentialsJSON, convey.ShouldEqual, `{"type":"service_account"}`)
				convey.So(cfg.SaveMode, convey.ShouldEqual, "overwrite")
				convey.So(cfg.TopN, convey.ShouldEqual, 5)
				convey.So(cfg.IdempotencySize, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
store: xlsx
xlsx_path: /tmp/medals.xlsx
sheet_tab: Medals
store_timeout_ms: 2000
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MEDALS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Store, convey.ShouldEqual, "xlsx")
				convey.So(cfg.XLSXPath, convey.ShouldEqual, "/tmp/medals.xlsx")
				convey.So(cfg.SheetTab, convey.ShouldEqual, "Medals")
				convey.So(cfg.StoreTimeoutMS, convey.ShouldEqual, 2000)
				convey.So(cfg.SaveMode, convey.ShouldEqual, "merge") // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
store: sqlite
sqlite_path: /tmp/a.db
sqlite_table: games
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MEDALS_CONFIG", tmpFile)
			_ = os.Setenv("MEDALS_SQLITE_PATH", "/tmp/b.db")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/b.db") // Overridden by env
				convey.So(cfg.SQLiteTable, convey.ShouldEqual, "games")    // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MEDALS_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("MEDALS_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with invalid values", func() {
			_ = os.Setenv("MEDALS_STORE", "memory")

			convey.Convey("Then an empty addr is rejected", func() {
				_ = os.Setenv("MEDALS_ADDR", "")
				_, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})

			convey.Convey("Then an unknown save mode is rejected", func() {
				_ = os.Setenv("MEDALS_SAVE_MODE", "append")
				_, err := config.Load(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})

			convey.Convey("Then an unknown store is rejected", func() {
				_ = os.Setenv("MEDALS_STORE", "ftp")
				_, err := config.Load(ctx)
				convey.So(errors.Is(err, config.ErrUnknownStore), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "ftp")
			})

			convey.Convey("Then a zero save queue is rejected", func() {
				_ = os.Setenv("MEDALS_SAVE_QUEUE_SIZE", "0")
				_, err := config.Load(ctx)
				convey.So(err.Error(), convey.ShouldContainSubstring, "save_queue_size")
			})

			convey.Convey("Then a non-numeric top_n is rejected", func() {
				_ = os.Setenv("MEDALS_TOP_N", "three")
				_, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("Then a zero top_n is rejected", func() {
				_ = os.Setenv("MEDALS_TOP_N", "0")
				_, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("Then the memory store needs no locator", func() {
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Store, convey.ShouldEqual, "memory")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				if key := kv[:i]; len(key) > len(config.EnvPrefix) && key[:len(config.EnvPrefix)] == config.EnvPrefix {
					_ = os.Unsetenv(key)
				}
				break
			}
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "medals-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
