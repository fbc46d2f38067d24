// Package handlers exposes the services over HTTP with Fiber.
package handlers

import (
	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the product routes. The by-name routes are
// registered before /:id so a product id can never shadow them.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Delete("/", h.HandleDeleteProducts)
	productRoutes.Get("/by-name/:name", h.HandleGetProductByName)
	productRoutes.Delete("/by-name/:name", h.HandleDeleteProductByName)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Delete("/:id", h.HandleDeleteProductByID)
	productRoutes.Patch("/:id/price", h.HandleUpdateProductPrice)
	productRoutes.Patch("/:id/quantity", h.HandleUpdateProductQuantity)
}

// HandleCreateProduct creates a product and returns it with its new id.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), req.ToModel())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleGetProducts lists every product.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleGetProductByName(c *fiber.Ctx) error {
	product, err := h.service.GetProductByName(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleDeleteProducts(c *fiber.Ctx) error {
	if err := h.service.DeleteAllProducts(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDeleteProductByID answers 204 whether or not the product existed.
func (h *ProductHandler) HandleDeleteProductByID(c *fiber.Ctx) error {
	if err := h.service.DeleteProductByID(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) HandleDeleteProductByName(c *fiber.Ctx) error {
	if err := h.service.DeleteProductByName(c.UserContext(), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductHandler) HandleUpdateProductPrice(c *fiber.Ctx) error {
	var req UpdateProductPriceRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return err
	}

	product, err := h.service.UpdateProductPrice(c.UserContext(), c.Params("id"), *req.Price)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *ProductHandler) HandleUpdateProductQuantity(c *fiber.Ctx) error {
	var req UpdateProductQuantityRequest
	if err := bindJSON(c, h.validate, &req); err != nil {
		return err
	}

	product, err := h.service.UpdateProductQuantity(c.UserContext(), c.Params("id"), *req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(product)
}
