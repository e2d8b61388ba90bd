package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"beefline/api/internal/ids"
	"beefline/api/internal/middleware"
	"beefline/api/internal/models"
	"beefline/api/internal/repository"
)

type cattleRequest struct {
	Title               string   `json:"title" binding:"required,max=200"`
	Description         string   `json:"description" binding:"required"`
	Breed               string   `json:"breed" binding:"required"`
	Gender              string   `json:"gender" binding:"required"`
	AgeMonths           int      `json:"ageMonths" binding:"min=0,max=300"`
	WeightKg            float64  `json:"weightKg" binding:"min=0"`
	Price               float64  `json:"price" binding:"min=0"`
	IsNegotiable        *bool    `json:"isNegotiable"`
	HealthStatus        string   `json:"healthStatus"`
	VaccinationStatus   bool     `json:"vaccinationStatus"`
	LastVaccinationDate *string  `json:"lastVaccinationDate"`
	HealthNotes         string   `json:"healthNotes"`
	FeedingHistory      string   `json:"feedingHistory"`
	Region              string   `json:"region" binding:"required"`
	City                string   `json:"city"`
	LocationDetails     string   `json:"locationDetails"`
	IsActive            *bool    `json:"isActive"`
}

type cattleResponse struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description,omitempty"`
	Breed             string  `json:"breed"`
	Gender            string  `json:"gender"`
	AgeMonths         int     `json:"ageMonths"`
	AgeDisplay        string  `json:"ageDisplay"`
	WeightKg          float64 `json:"weightKg"`
	Price             float64 `json:"price"`
	IsNegotiable      bool    `json:"isNegotiable"`
	HealthStatus      string  `json:"healthStatus"`
	VaccinationStatus bool    `json:"vaccinationStatus"`
	Region            string  `json:"region"`
	City              string  `json:"city"`
	SellerID          string  `json:"sellerId"`
	IsActive          bool    `json:"isActive"`
	IsSold            bool    `json:"isSold"`
	ViewCount         int     `json:"viewCount"`
	CreatedAt         string  `json:"createdAt"`

	PrimaryImage *imageResponse     `json:"primaryImage,omitempty"`
	Images       []imageResponse    `json:"images,omitempty"`
	Documents    []documentResponse `json:"healthDocuments,omitempty"`

	HasHealthCertificate *bool `json:"hasHealthCertificate,omitempty"`
}

func (h HandlerSet) ListCattle(c *gin.Context) {
	filter := repository.ListFilter{
		Breed:        c.Query("breed"),
		Gender:       c.Query("gender"),
		Region:       c.Query("region"),
		HealthStatus: c.Query("healthStatus"),
		Search:       c.Query("search"),
		OrderBy:      c.Query("orderBy"),
	}

	if v := c.Query("vaccinated"); v != "" {
		vaccinated := v == "true"
		filter.VaccinationStatus = &vaccinated
	}
	filter.PriceMin = queryFloat(c, "priceMin")
	filter.PriceMax = queryFloat(c, "priceMax")
	filter.AgeMin = queryInt(c, "ageMin")
	filter.AgeMax = queryInt(c, "ageMax")
	filter.WeightMin = queryFloat(c, "weightMin")
	filter.WeightMax = queryFloat(c, "weightMax")
	filter.Limit = queryInt(c, "limit")
	filter.Offset = queryInt(c, "offset")

	listings, err := h.cattle.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]cattleResponse, 0, len(listings))
	for _, listing := range listings {
		item := toCattleResponse(listing, false)
		if primary, err := h.images.Primary(c.Request.Context(), listing.ID); err == nil {
			img := toImageResponse(primary)
			item.PrimaryImage = &img
		}
		resp = append(resp, item)
	}

	c.JSON(http.StatusOK, gin.H{"cattle": resp})
}

func (h HandlerSet) GetCattle(c *gin.Context) {
	ctx := c.Request.Context()

	listing, err := h.cattle.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrCattleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cattle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.cattle.IncrementViewCount(ctx, listing.ID); err != nil {
		h.log.Warn().Err(err).Str("cattle_id", listing.ID).Msg("view count increment failed")
	}
	listing.ViewCount++

	resp := toCattleResponse(listing, true)

	images, err := h.images.ListByCattle(ctx, listing.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, img := range images {
		resp.Images = append(resp.Images, toImageResponse(img))
	}

	documents, err := h.documents.ListByCattle(ctx, listing.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, doc := range documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(doc))
	}

	if certified, err := h.documents.HasType(ctx, listing.ID, models.DocumentHealthCertificate); err == nil {
		resp.HasHealthCertificate = &certified
	}

	c.JSON(http.StatusOK, gin.H{"cattle": resp})
}

func (h HandlerSet) MyListings(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listings, err := h.cattle.List(c.Request.Context(), repository.ListFilter{
		SellerID:        user.ID,
		IncludeInactive: true,
		Limit:           queryInt(c, "limit"),
		Offset:          queryInt(c, "offset"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]cattleResponse, 0, len(listings))
	for _, listing := range listings {
		resp = append(resp, toCattleResponse(listing, false))
	}
	c.JSON(http.StatusOK, gin.H{"cattle": resp})
}

func (h HandlerSet) CreateCattle(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listing, ok := h.bindCattle(c, models.Cattle{ID: ids.New(), SellerID: user.ID})
	if !ok {
		return
	}

	if err := h.cattle.Create(c.Request.Context(), listing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"cattle": toCattleResponse(listing, true)})
}

func (h HandlerSet) UpdateCattle(c *gin.Context) {
	existing, ok := h.ownListing(c)
	if !ok {
		return
	}

	listing, ok := h.bindCattle(c, existing)
	if !ok {
		return
	}

	if err := h.cattle.Update(c.Request.Context(), listing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cattle": toCattleResponse(listing, true)})
}

func (h HandlerSet) DeleteCattle(c *gin.Context) {
	listing, ok := h.ownListing(c)
	if !ok {
		return
	}

	if err := h.cattle.Delete(c.Request.Context(), listing.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) MarkSold(c *gin.Context) {
	listing, ok := h.ownListing(c)
	if !ok {
		return
	}

	if err := h.cattle.MarkSold(c.Request.Context(), listing.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cattle marked as sold"})
}

func (h HandlerSet) AdminListCattle(c *gin.Context) {
	listings, err := h.cattle.List(c.Request.Context(), repository.ListFilter{
		IncludeInactive: true,
		Limit:           queryInt(c, "limit"),
		Offset:          queryInt(c, "offset"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]cattleResponse, 0, len(listings))
	for _, listing := range listings {
		resp = append(resp, toCattleResponse(listing, false))
	}
	c.JSON(http.StatusOK, gin.H{"cattle": resp})
}

// bindCattle merges a request body onto base, validating the enumerated
// fields that gin's binding tags cannot express.
func (h HandlerSet) bindCattle(c *gin.Context, base models.Cattle) (models.Cattle, bool) {
	var req cattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Cattle{}, false
	}

	if !models.ValidRegion(req.Region) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown region"})
		return models.Cattle{}, false
	}

	switch models.Breed(req.Breed) {
	case models.BreedWestAfricanShorthorn, models.BreedZebu, models.BreedSanga, models.BreedCrossbreed, models.BreedOther:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown breed"})
		return models.Cattle{}, false
	}

	switch models.Gender(req.Gender) {
	case models.GenderMale, models.GenderFemale:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown gender"})
		return models.Cattle{}, false
	}

	health := models.HealthStatus(req.HealthStatus)
	switch health {
	case models.HealthExcellent, models.HealthGood, models.HealthFair, models.HealthPoor:
	case "":
		health = models.HealthGood
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown health status"})
		return models.Cattle{}, false
	}

	base.Title = req.Title
	base.Description = req.Description
	base.Breed = models.Breed(req.Breed)
	base.Gender = models.Gender(req.Gender)
	base.AgeMonths = req.AgeMonths
	base.WeightKg = req.WeightKg
	base.Price = req.Price
	base.HealthStatus = health
	base.VaccinationStatus = req.VaccinationStatus
	base.HealthNotes = req.HealthNotes
	base.FeedingHistory = req.FeedingHistory
	base.Region = req.Region
	base.City = req.City
	base.LocationDetails = req.LocationDetails

	base.IsNegotiable = true
	if req.IsNegotiable != nil {
		base.IsNegotiable = *req.IsNegotiable
	}
	base.IsActive = true
	if req.IsActive != nil {
		base.IsActive = *req.IsActive
	}

	if req.LastVaccinationDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.LastVaccinationDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lastVaccinationDate must be YYYY-MM-DD"})
			return models.Cattle{}, false
		}
		base.LastVaccinationDate = &parsed
	}

	return base, true
}

func toCattleResponse(c models.Cattle, full bool) cattleResponse {
	resp := cattleResponse{
		ID:                c.ID,
		Title:             c.Title,
		Breed:             string(c.Breed),
		Gender:            string(c.Gender),
		AgeMonths:         c.AgeMonths,
		AgeDisplay:        c.AgeDisplay(),
		WeightKg:          c.WeightKg,
		Price:             c.Price,
		IsNegotiable:      c.IsNegotiable,
		HealthStatus:      string(c.HealthStatus),
		VaccinationStatus: c.VaccinationStatus,
		Region:            c.Region,
		City:              c.City,
		SellerID:          c.SellerID,
		IsActive:          c.IsActive,
		IsSold:            c.IsSold,
		ViewCount:         c.ViewCount,
		CreatedAt:         c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if full {
		resp.Description = c.Description
	}
	return resp
}

func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

func queryFloat(c *gin.Context, name string) float64 {
	v, err := strconv.ParseFloat(c.Query(name), 64)
	if err != nil {
		return 0
	}
	return v
}
