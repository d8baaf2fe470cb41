package main

import (
	"log"
	"os"

	"github.com/acmefin/backend/internal/config"
	"github.com/acmefin/backend/internal/database"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type seedCustomer struct {
	id    string
	name  string
	email string
	image string
}

type seedInvoice struct {
	customer int // index into customers
	amount   int64
	status   string
	date     string
}

var customers = []seedCustomer{
	{uuid.New().String(), "Evil Rabbit", "evil@rabbit.com", "/static/customer-images/evil-rabbit.png"},
	{uuid.New().String(), "Delba de Oliveira", "delba@oliveira.com", "/static/customer-images/delba-de-oliveira.png"},
	{uuid.New().String(), "Lee Robinson", "lee@robinson.com", "/static/customer-images/lee-robinson.png"},
	{uuid.New().String(), "Michael Novotny", "michael@novotny.com", "/static/customer-images/michael-novotny.png"},
	{uuid.New().String(), "Amy Burns", "amy@burns.com", "/static/customer-images/amy-burns.png"},
	{uuid.New().String(), "Balazs Orban", "balazs@orban.com", "/static/customer-images/balazs-orban.png"},
}

var invoices = []seedInvoice{
	{0, 15795, "pending", "2022-12-06"},
	{1, 20348, "pending", "2022-11-14"},
	{4, 3040, "paid", "2022-10-29"},
	{3, 44800, "paid", "2023-09-10"},
	{5, 34577, "pending", "2023-08-05"},
	{2, 54246, "pending", "2023-07-16"},
	{0, 666, "pending", "2023-06-27"},
	{3, 32545, "paid", "2023-06-09"},
	{4, 1250, "paid", "2023-06-17"},
	{5, 8546, "paid", "2023-06-07"},
	{1, 500, "paid", "2023-08-19"},
	{5, 8945, "paid", "2023-06-03"},
	{2, 1000, "paid", "2022-06-05"},
}

var revenue = map[string]int64{
	"Jan": 2000, "Feb": 1800, "Mar": 2200, "Apr": 2500,
	"May": 2300, "Jun": 3200, "Jul": 3500, "Aug": 3700,
	"Sep": 2500, "Oct": 2800, "Nov": 3000, "Dec": 4800,
}

func main() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	db := database.InitDatabase()
	defer db.Close()

	sessionConfig := config.LoadSessionConfig()

	email := os.Getenv("SEED_USER_EMAIL")
	if email == "" {
		email = "user@nextmail.com"
	}
	password := os.Getenv("SEED_USER_PASSWORD")
	if password == "" {
		password = "123456"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), sessionConfig.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (id, name, email, password) VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`,
		uuid.New().String(), "User", email, string(hash))
	if err != nil {
		log.Fatalf("Failed to seed user: %v", err)
	}

	for _, c := range customers {
		_, err := db.Exec(`
			INSERT INTO customers (id, name, email, image_url) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`,
			c.id, c.name, c.email, c.image)
		if err != nil {
			log.Fatalf("Failed to seed customer %s: %v", c.name, err)
		}
	}

	for _, inv := range invoices {
		_, err := db.Exec(`
			INSERT INTO invoices (id, customer_id, amount, status, date) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			uuid.New().String(), customers[inv.customer].id, inv.amount, inv.status, inv.date)
		if err != nil {
			log.Fatalf("Failed to seed invoice: %v", err)
		}
	}

	for month, amount := range revenue {
		_, err := db.Exec(`
			INSERT INTO revenue (month, revenue) VALUES ($1, $2)
			ON CONFLICT (month) DO NOTHING`,
			month, amount)
		if err != nil {
			log.Fatalf("Failed to seed revenue for %s: %v", month, err)
		}
	}

	log.Printf("Seeded %d customers, %d invoices, %d revenue rows, demo user %s",
		len(customers), len(invoices), len(revenue), email)
}
