package s3

import (
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/scttfrdmn/cargoship/pkg/aws/config"
)

// S3 Storage Tier Constants
const (
	TierStandard          = "STANDARD"
	TierStandardIA        = "STANDARD_IA"
	TierOneZoneIA         = "ONEZONE_IA"
	TierReducedRedundancy = "REDUCED_REDUNDANCY"
	TierGlacierIR         = "GLACIER_IR"
	TierGlacier           = "GLACIER"
	TierDeepArchive       = "DEEP_ARCHIVE"
	TierIntelligent       = "INTELLIGENT_TIERING"
)

// StorageTierInfo describes a tier dumps can be mirrored to
type StorageTierInfo struct {
	Name             string `json:"name"`
	RetrievalLatency string `json:"retrieval_latency"`
	// MinimumStorageDays is billed even when the object is deleted earlier.
	MinimumStorageDays int `json:"minimum_storage_days"`
}

// StorageTiers lists the accepted values of Config.StorageTier.
var StorageTiers = map[string]StorageTierInfo{
	TierStandard:          {Name: "Standard", RetrievalLatency: "instant"},
	TierStandardIA:        {Name: "Standard-Infrequent Access", RetrievalLatency: "instant", MinimumStorageDays: 30},
	TierOneZoneIA:         {Name: "One Zone-Infrequent Access", RetrievalLatency: "instant", MinimumStorageDays: 30},
	TierReducedRedundancy: {Name: "Reduced Redundancy", RetrievalLatency: "instant"},
	TierGlacierIR:         {Name: "Glacier Instant Retrieval", RetrievalLatency: "instant", MinimumStorageDays: 90},
	TierGlacier:           {Name: "Glacier Flexible Retrieval", RetrievalLatency: "minutes-hours", MinimumStorageDays: 90},
	TierDeepArchive:       {Name: "Glacier Deep Archive", RetrievalLatency: "hours", MinimumStorageDays: 180},
	TierIntelligent:       {Name: "Intelligent Tiering", RetrievalLatency: "variable"},
}

// convertTierToStorageClass converts our tier constants to AWS SDK storage class types
func convertTierToStorageClass(tier string) types.StorageClass {
	switch tier {
	case TierStandardIA:
		return types.StorageClassStandardIa
	case TierOneZoneIA:
		return types.StorageClassOnezoneIa
	case TierReducedRedundancy:
		return types.StorageClassReducedRedundancy
	case TierGlacierIR:
		return types.StorageClassGlacierIr
	case TierGlacier:
		return types.StorageClassGlacier
	case TierDeepArchive:
		return types.StorageClassDeepArchive
	case TierIntelligent:
		return types.StorageClassIntelligentTiering
	default:
		return types.StorageClassStandard
	}
}

// convertTierToCargoShipStorageClass converts our tier constants to CargoShip storage class types
func convertTierToCargoShipStorageClass(tier string) config.StorageClass {
	switch tier {
	case TierStandardIA:
		return config.StorageClassStandardIA
	case TierOneZoneIA:
		return config.StorageClassOneZoneIA
	case TierGlacierIR, TierGlacier:
		// CargoShip has no instant retrieval class
		return config.StorageClassGlacier
	case TierDeepArchive:
		return config.StorageClassDeepArchive
	case TierIntelligent:
		return config.StorageClassIntelligentTiering
	default:
		return config.StorageClassStandard
	}
}
