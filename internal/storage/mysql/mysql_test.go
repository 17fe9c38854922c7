package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
)

var testDB *sql.DB

// Интеграционные тесты идут только при заданном TEST_MYSQL_DSN,
// например root:@tcp(localhost:3306)/print_calc_test?parseTime=true
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		os.Exit(m.Run())
	}

	var err error
	testDB, err = sql.Open("mysql", dsn)
	if err != nil {
		panic(fmt.Errorf("не удалось подключиться к тестовой БД: %w", err))
	}

	if err := testDB.Ping(); err != nil {
		panic(fmt.Errorf("ping failed: %w", err))
	}

	if err := NewFromDB(testDB).Migrate(context.Background()); err != nil {
		panic(fmt.Errorf("migrate: %w", err))
	}

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

func testStorage(t *testing.T) *Storage {
	t.Helper()
	if testDB == nil {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	return NewFromDB(testDB)
}
