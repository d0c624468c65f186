package sqlstore

import (
	"fmt"
	"strings"
)

// Dialect описывает различия SQL между поддерживаемыми СУБД
type Dialect struct {
	Name        string
	DriverName  string
	CreateTable string
	placeholder func(n int) string
}

var (
	MySQL = Dialect{
		Name:       "mysql",
		DriverName: "mysql",
		CreateTable: `CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			title TEXT,
			price VARCHAR(255),
			rating VARCHAR(255)
		) DEFAULT CHARSET=utf8mb4`,
		placeholder: func(int) string { return "?" },
	}

	SQLServer = Dialect{
		Name:       "sqlserver",
		DriverName: "sqlserver",
		CreateTable: `IF OBJECT_ID(N'products', N'U') IS NULL
		CREATE TABLE products (
			id INT IDENTITY(1,1) PRIMARY KEY,
			title NVARCHAR(MAX),
			price NVARCHAR(255),
			rating NVARCHAR(255)
		)`,
		placeholder: func(n int) string { return fmt.Sprintf("@p%d", n) },
	}

	SQLite = Dialect{
		Name:       "sqlite",
		DriverName: "sqlite",
		CreateTable: `CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT,
			price TEXT,
			rating TEXT
		)`,
		placeholder: func(int) string { return "?" },
	}
)

// DialectByName возвращает диалект по значению storage.driver
func DialectByName(name string) (Dialect, error) {
	switch name {
	case MySQL.Name:
		return MySQL, nil
	case SQLServer.Name:
		return SQLServer, nil
	case SQLite.Name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported storage driver: %s", name)
	}
}

// insertQuery строит INSERT INTO products(title,price,rating) VALUES (?,?,?),(?,?,?)... на rows строк
func (d Dialect) insertQuery(rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO products (title, price, rating) VALUES ")

	n := 1
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for col := 0; col < 3; col++ {
			if col > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.placeholder(n))
			n++
		}
		b.WriteString(")")
	}

	return b.String()
}
