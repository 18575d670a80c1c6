package shipments

import (
	"github.com/angelmondragon/tna-backend/pkg/db/models"
	"github.com/angelmondragon/tna-backend/pkg/enums"
)

// CanCreateTracking reports whether shipment tracking may be created: CAD
// final completion, fabric receipt and sample completion must all be set.
// Missing stage rows count as incomplete.
func CanCreateTracking(cad *models.CadStage, fabric *models.FabricStage, sample *models.SampleStage) bool {
	return len(MissingStages(cad, fabric, sample)) == 0
}

// MissingStages lists the stages still blocking the gate, in pipeline order.
func MissingStages(cad *models.CadStage, fabric *models.FabricStage, sample *models.SampleStage) []enums.StageKind {
	var missing []enums.StageKind
	if cad == nil || cad.FinalCompleteDate == nil {
		missing = append(missing, enums.StageKindCAD)
	}
	// Fabric is gated on receipt, not on its finish date.
	if fabric == nil || fabric.ActualReceiveDate == nil {
		missing = append(missing, enums.StageKindFabric)
	}
	if sample == nil || sample.ActualSampleCompleteDate == nil {
		missing = append(missing, enums.StageKindSample)
	}
	return missing
}
