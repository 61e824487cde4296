package crawler

// Assemble merges extracted fields with the originating identifier. It has
// no failure path: gaps become empty lists, "" and false.
func Assemble(appID string, fields PartialFields) GameRecord {
	record := GameRecord{
		GameID:      appID,
		Title:       fields.Title,
		TagList:     fields.TagList,
		Deck:        fields.Deck,
		EarlyAccess: fields.EarlyAccess,
		VROnly:      fields.VROnly,
		VRSupported: fields.VRSupported,
		VRPCInput:   fields.VRPCInput,
	}
	if record.TagList == nil {
		record.TagList = []string{}
	}
	if record.VRPCInput == nil {
		record.VRPCInput = []string{}
	}
	return record
}
