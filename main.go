package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsurePartnerIndexes(db); err != nil {
		log.Printf("partner index warning: %v", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}

	secret := config.AppEnv.JWTSecret
	accessTTL := config.AppEnv.AccessTokenTTL

	r := gin.Default()

	r.POST("/auth/register", handlers.Register(db, secret, accessTTL))
	r.POST("/auth/login", handlers.Login(db, secret, accessTTL))
	r.GET("/auth/me", middleware.AuthGuard(secret), handlers.GetMe(db))

	r.GET("/products", handlers.GetProducts(db))

	customer := r.Group("/")
	customer.Use(middleware.CustomerAuth(secret))
	{
		customer.POST("/orders", handlers.Checkout(
			db,
			config.AppEnv.DeliveryFee,
			config.AppEnv.CouponCode,
			config.AppEnv.CouponDiscount,
		))
		customer.GET("/orders", handlers.GetMyOrders(db))
		customer.POST("/orders/:id/cancel", handlers.CancelOrder(db))
		customer.POST("/orders/:id/payment/confirm", handlers.ConfirmPayment(db))
		customer.POST("/orders/:id/payment/fail", handlers.FailPayment(db))

		customer.GET("/user/addresses", handlers.GetUserAddresses(db))
		customer.POST("/user/addresses", handlers.CreateUserAddress(db))
		customer.PUT("/user/addresses/:id", handlers.UpdateUserAddress(db))
		customer.DELETE("/user/addresses/:id", handlers.DeleteUserAddress(db))
	}

	r.GET("/orders/:id",
		middleware.AuthGuard(secret, models.RoleCustomer, models.RoleRetailer),
		handlers.GetOrder(db))

	merchant := r.Group("/merchant")
	merchant.Use(middleware.MerchantAuth(secret))
	{
		merchant.GET("/products", handlers.GetMyProducts(db))
		merchant.POST("/products", handlers.CreateProduct(db))
		merchant.PUT("/products/:id", handlers.UpdateProduct(db))
		merchant.DELETE("/products/:id", handlers.DeleteProduct(db))
	}

	retailer := r.Group("/retailer")
	retailer.Use(middleware.RetailerAuth(secret))
	{
		retailer.GET("/orders", handlers.GetOrders(db))
		retailer.POST("/orders/:id/accept", handlers.AcceptOrder(db))
		retailer.POST("/orders/:id/prepare", handlers.MarkPreparing(db))
		retailer.POST("/orders/:id/dispatch", handlers.DispatchOrder(db))
		retailer.POST("/orders/:id/assign", handlers.AssignPartner(db))
		retailer.GET("/partners", handlers.ListAvailablePartners(db))

		retailer.GET("/proxy-products", handlers.GetProxyProducts(db))
		retailer.POST("/proxy-products/:id/adopt", handlers.AdoptProxyProduct(db))
	}

	partner := r.Group("/partner")
	partner.Use(middleware.PartnerAuth(secret))
	{
		partner.POST("/profile", handlers.RegisterPartner(db))
		partner.PATCH("/availability", handlers.SetPartnerAvailability(db))
		partner.GET("/orders", handlers.GetPartnerOrders(db))
		partner.POST("/orders/:id/complete", handlers.CompleteDelivery(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
