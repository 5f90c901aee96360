package domain

// DefaultQuestionBank is the built-in knowledge-check set, five questions per
// pipeline stage. Served when no Postgres bank is configured.
func DefaultQuestionBank() []Question {
	return []Question{
		// Stage 1: purification
		{
			ID: 1, Stage: 1,
			Prompt:      "What is the most basic raw material for chip making?",
			Options:     []string{"Gold", "Sand (silicon dioxide)", "Crude oil", "Wood"},
			Answer:      1,
			Explanation: "Wafers are made of high-purity silicon, and silicon comes mostly from natural quartz sand.",
		},
		{
			ID: 2, Stage: 1,
			Prompt:      "During purification, what role does coke play?",
			Options:     []string{"Dye", "Coolant", "Reducing agent", "Sealant"},
			Answer:      2,
			Explanation: "At high temperature coke reduces silicon dioxide to crude silicon.",
		},
		{
			ID: 3, Stage: 1,
			Prompt:      "What is silicon's atomic number in the periodic table?",
			Options:     []string{"6", "14", "26", "32"},
			Answer:      1,
			Explanation: "Silicon's atomic number is 14.",
		},
		{
			ID: 4, Stage: 1,
			Prompt:      "True or false: crude silicon is pure enough for advanced-node chips as-is.",
			Options:     []string{"True", "False"},
			Answer:      1,
			Explanation: "Crude silicon sits around 98-99% purity, far below semiconductor grade.",
		},
		{
			ID: 5, Stage: 1,
			Prompt:      "What is the primary job in stage 1?",
			Options:     []string{"Assembling phones", "Purifying raw material", "Designing circuits", "Packaging chips"},
			Answer:      1,
			Explanation: "Stage 1 covers the basic processing from sand to crude silicon.",
		},
		// Stage 2: crystal growth and cutting
		{
			ID: 6, Stage: 2,
			Prompt:      "Which is a common method for growing monocrystalline silicon?",
			Options:     []string{"Casting", "Machining", "Siemens process / crystal pulling", "Printing"},
			Answer:      2,
			Explanation: "The Siemens process and the Czochralski method are the mainstream routes to electronic-grade silicon.",
		},
		{
			ID: 7, Stage: 2,
			Prompt:      "A silicon rod sliced into thin discs is called a?",
			Options:     []string{"Silicon strip", "Silicon plate", "Wafer", "Silicon film"},
			Answer:      2,
			Explanation: "The thin disc cut from an ingot is known as a wafer.",
		},
		{
			ID: 8, Stage: 2,
			Prompt:      "True or false: an epitaxial wafer usually outperforms a plain memory-grade wafer.",
			Options:     []string{"True", "False"},
			Answer:      0,
			Explanation: "Epitaxy grows a low-defect single-crystal layer on the substrate, suited to high-performance devices.",
		},
		{
			ID: 9, Stage: 2,
			Prompt:      "Which tool is most common for slicing silicon ingots?",
			Options:     []string{"Stainless saw blade", "Diamond wire saw", "Laser engraver", "Utility knife"},
			Answer:      1,
			Explanation: "Diamond wire cutting combines low kerf loss with high throughput.",
		},
		{
			ID: 10, Stage: 2,
			Prompt:      "An ingot at 99.99% purity is better suited to which product?",
			Options:     []string{"High-power chips", "Basic calculators", "Low-speed sensors", "Toy speakers"},
			Answer:      0,
			Explanation: "Higher purity supports more demanding device performance.",
		},
		// Stage 3: chip manufacturing
		{
			ID: 11, Stage: 3,
			Prompt:      "Which core technique 'carves' circuits onto a wafer?",
			Options:     []string{"3D printing", "Photolithography", "Precision welding", "Chemical spraying"},
			Answer:      1,
			Explanation: "Photolithography determines a chip's process node.",
		},
		{
			ID: 12, Stage: 3,
			Prompt:      "What is the most advanced light source used in lithography today?",
			Options:     []string{"Visible light", "Ultraviolet (UV)", "Extreme ultraviolet (EUV)", "X-ray"},
			Answer:      2,
			Explanation: "EUV is the key light source enabling 7nm-and-below nodes.",
		},
		{
			ID: 13, Stage: 3,
			Prompt:      "After a chip is fabricated, what protects it?",
			Options:     []string{"Cleaning", "Packaging", "Polishing", "Painting"},
			Answer:      1,
			Explanation: "Packaging protects the die and provides the pins connecting it to the outside world.",
		},
		{
			ID: 14, Stage: 3,
			Prompt:      "Moore's law predicts transistor counts double roughly every?",
			Options:     []string{"10 years", "5 years", "18-24 months", "1 month"},
			Answer:      2,
			Explanation: "An empirical law proposed by Intel co-founder Gordon Moore.",
		},
		{
			ID: 15, Stage: 3,
			Prompt:      "The ultimate purity target 99.9999% is usually called how many 'nines'?",
			Options:     []string{"Four nines", "Six nines", "Nine nines", "Eleven nines"},
			Answer:      1,
			Explanation: "Count the total nines on both sides of the decimal point.",
		},
	}
}
